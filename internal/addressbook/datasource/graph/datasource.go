package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-memdb"
	log "github.com/sirupsen/logrus"

	"github.com/sjzar/contactsbridge/internal/model"
	"github.com/sjzar/contactsbridge/pkg/filemonitor"
	"github.com/sjzar/contactsbridge/pkg/util"
)

const (
	Kind = "graph"

	tableContact = "contact"
	indexID      = "id"
	indexName    = "name"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableContact: {
			Name: tableContact,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Identifier"},
				},
				indexName: {
					Name:         indexName,
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "SortName", Lowercase: true},
				},
			},
		},
	},
}

// DataSource 以标识符为键的对象图联系人存储，内存索引加磁盘快照
type DataSource struct {
	path         string
	snapshotPath string

	mutex sync.RWMutex
	db    *memdb.MemDB

	// 最近一次自身写入的快照状态，用于忽略自身触发的文件事件
	lastWrite os.FileInfo

	fm      *filemonitor.FileMonitor
	fmMutex sync.Mutex
}

func New(path string) (*DataSource, error) {
	if err := util.PrepareDir(path); err != nil {
		return nil, fmt.Errorf("准备数据目录失败: %w", err)
	}
	ds := &DataSource{
		path:         path,
		snapshotPath: filepath.Join(path, SnapshotFile),
	}
	if err := ds.load(); err != nil {
		return nil, err
	}
	return ds, nil
}

// load 从快照重建内存索引
func (ds *DataSource) load() error {
	contacts, err := readSnapshot(ds.snapshotPath)
	if err != nil {
		return err
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return fmt.Errorf("创建内存存储失败: %w", err)
	}
	txn := db.Txn(true)
	for _, c := range contacts {
		if err := txn.Insert(tableContact, c); err != nil {
			txn.Abort()
			return fmt.Errorf("载入联系人 %s 失败: %w", c.Identifier, err)
		}
	}
	txn.Commit()

	ds.mutex.Lock()
	ds.db = db
	ds.mutex.Unlock()
	log.Debugf("载入快照 %s，共 %d 个联系人", ds.snapshotPath, len(contacts))
	return nil
}

func (ds *DataSource) memdb() *memdb.MemDB {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()
	return ds.db
}

func (ds *DataSource) Kind() string {
	return Kind
}

func (ds *DataSource) Version() string {
	return fmt.Sprintf("snapshot %d", SnapshotVersion)
}

// SetCallback 快照被其他进程改写时先重新载入，再触发 callback
func (ds *DataSource) SetCallback(group string, callback func(event fsnotify.Event) error) error {
	ds.fmMutex.Lock()
	defer ds.fmMutex.Unlock()

	if ds.fm == nil {
		ds.fm = filemonitor.NewFileMonitor()
		if err := ds.fm.Start(); err != nil {
			ds.fm = nil
			return err
		}
	}
	fg, ok := ds.fm.GetGroup(group)
	if !ok {
		var err error
		fg, err = filemonitor.NewFileGroup(group, ds.path, "^"+regexp.QuoteMeta(SnapshotFile)+"$")
		if err != nil {
			return err
		}
		fg.AddCallback(ds.reloadCallback)
		if err := ds.fm.AddGroup(fg); err != nil {
			return err
		}
	}
	fg.AddCallback(callback)
	return nil
}

func (ds *DataSource) reloadCallback(event fsnotify.Event) error {
	info, err := os.Stat(ds.snapshotPath)
	if err != nil {
		return nil
	}
	ds.mutex.RLock()
	last := ds.lastWrite
	ds.mutex.RUnlock()
	if last != nil && last.Size() == info.Size() && last.ModTime().Equal(info.ModTime()) {
		return nil
	}
	log.Infof("快照 %s 已被外部修改，重新载入", event.Name)
	return ds.load()
}

// persist 写入快照并记录文件状态
func (ds *DataSource) persist(contacts []*model.GraphContact) error {
	if err := writeSnapshot(ds.snapshotPath, contacts); err != nil {
		return err
	}
	info, err := os.Stat(ds.snapshotPath)
	if err == nil {
		ds.mutex.Lock()
		ds.lastWrite = info
		ds.mutex.Unlock()
	}
	return nil
}

func (ds *DataSource) Close() error {
	ds.fmMutex.Lock()
	defer ds.fmMutex.Unlock()
	if ds.fm != nil {
		if err := ds.fm.Stop(); err != nil {
			log.Warnf("停止文件监控失败: %v", err)
		}
		ds.fm = nil
	}
	return nil
}

