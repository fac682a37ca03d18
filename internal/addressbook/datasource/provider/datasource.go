package provider

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/sjzar/contactsbridge/pkg/filemonitor"
	"github.com/sjzar/contactsbridge/pkg/util"
)

const Kind = "provider"

// DataSource 基于 content provider 表结构的联系人存储
type DataSource struct {
	path string
	db   *sql.DB

	fm    *filemonitor.FileMonitor
	mutex sync.Mutex
}

func New(path string) (*DataSource, error) {
	if err := util.PrepareDir(path); err != nil {
		return nil, fmt.Errorf("准备数据目录失败: %w", err)
	}

	dbPath := filepath.Join(path, DBFile)
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath))
	if err != nil {
		return nil, fmt.Errorf("连接数据库 %s 失败: %w", dbPath, err)
	}
	// 单连接保证批次内的事务与聚合使用同一连接
	db.SetMaxOpenConns(1)

	ds := &DataSource{
		path: path,
		db:   db,
	}
	if err := ds.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	return ds, nil
}

func (ds *DataSource) initSchema() error {
	for _, stmt := range schema {
		if _, err := ds.db.Exec(stmt); err != nil {
			return err
		}
	}
	var version int
	if err := ds.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version == 0 {
		if _, err := ds.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return err
		}
	}
	return nil
}

func (ds *DataSource) Kind() string {
	return Kind
}

// Version 返回 schema 版本和 sqlite 版本
func (ds *DataSource) Version() string {
	var sqliteVersion string
	if err := ds.db.QueryRow("SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		log.Warnf("读取 sqlite 版本失败: %v", err)
		sqliteVersion = "unknown"
	}
	return fmt.Sprintf("schema %d (sqlite %s)", SchemaVersion, sqliteVersion)
}

// SetCallback 数据库文件被外部修改时触发 callback
func (ds *DataSource) SetCallback(group string, callback func(event fsnotify.Event) error) error {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

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
		fg, err = filemonitor.NewFileGroup(group, ds.path, "^"+regexp.QuoteMeta(DBFile)+"$")
		if err != nil {
			return err
		}
		if err := ds.fm.AddGroup(fg); err != nil {
			return err
		}
	}
	fg.AddCallback(callback)
	return nil
}

func (ds *DataSource) Close() error {
	ds.mutex.Lock()
	if ds.fm != nil {
		if err := ds.fm.Stop(); err != nil {
			log.Warnf("停止文件监控失败: %v", err)
		}
		ds.fm = nil
	}
	ds.mutex.Unlock()
	return ds.db.Close()
}
