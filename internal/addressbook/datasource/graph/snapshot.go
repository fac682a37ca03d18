package graph

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"howett.net/plist"

	"github.com/sjzar/contactsbridge/internal/model"
	"github.com/sjzar/contactsbridge/pkg/util"
	"github.com/sjzar/contactsbridge/pkg/util/lz4"
)

// SnapshotFile 对象图快照文件名
const SnapshotFile = "contacts.plist"

// SnapshotVersion 快照格式版本
const SnapshotVersion = 1

// snapshot 二进制 plist 快照，图片数据以 lz4 frame 压缩存放
type snapshot struct {
	Version  int                   `plist:"version"`
	Contacts []*model.GraphContact `plist:"contacts"`
}

func readSnapshot(path string) ([]*model.GraphContact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var snap snapshot
	if _, err := plist.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("解析快照 %s 失败: %w", path, err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("快照版本 %d 不受支持", snap.Version)
	}

	// 单个图片损坏只清空该联系人的图片，不影响其他数据
	for _, c := range snap.Contacts {
		if c.ImageData, err = inflate(c.ImageData); err != nil {
			log.Warnf("联系人 %s 原图解压失败: %v", c.Identifier, err)
			c.ImageData = nil
		}
		if c.ThumbnailImageData, err = inflate(c.ThumbnailImageData); err != nil {
			log.Warnf("联系人 %s 缩略图解压失败: %v", c.Identifier, err)
			c.ThumbnailImageData = nil
		}
		c.SortName = c.FullName()
	}
	return snap.Contacts, nil
}

func writeSnapshot(path string, contacts []*model.GraphContact) error {
	snap := snapshot{
		Version:  SnapshotVersion,
		Contacts: make([]*model.GraphContact, 0, len(contacts)),
	}
	for _, c := range contacts {
		out := *c
		var err error
		if out.ImageData, err = deflate(c.ImageData); err != nil {
			return err
		}
		if out.ThumbnailImageData, err = deflate(c.ThumbnailImageData); err != nil {
			return err
		}
		snap.Contacts = append(snap.Contacts, &out)
	}

	data, err := plist.Marshal(&snap, plist.BinaryFormat)
	if err != nil {
		return fmt.Errorf("编码快照失败: %w", err)
	}
	return util.WriteFileAtomic(path, data, 0o600)
}

func deflate(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return lz4.Compress(b)
}

func inflate(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return lz4.Decompress(b)
}
