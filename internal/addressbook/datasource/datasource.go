package datasource

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/sjzar/contactsbridge/internal/addressbook/datasource/graph"
	"github.com/sjzar/contactsbridge/internal/addressbook/datasource/provider"
	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
)

const (
	KindProvider = "provider"
	KindGraph    = "graph"
	KindAuto     = "auto"
)

type DataSource interface {

	// 联系人，keyword 为空时返回全部，顺序为存储原生顺序
	GetContacts(ctx context.Context, keyword string, groups model.PropertyGroups) ([]*model.Contact, error)

	// 单个联系人，不存在时返回 nil, nil
	GetContact(ctx context.Context, id string, groups model.PropertyGroups) (*model.Contact, error)

	// 写入，返回新联系人的 id
	CreateContact(ctx context.Context, patch *model.ContactPatch) (string, error)
	UpdateContact(ctx context.Context, id string, patch *model.ContactPatch) error
	DeleteContact(ctx context.Context, id string) error

	// 后端类型与存储版本
	Kind() string
	Version() string

	// 设置回调函数，存储被其他进程修改时触发
	SetCallback(group string, callback func(event fsnotify.Event) error) error

	Close() error
}

// New 打开 path 下指定类型的联系人存储
func New(kind string, path string) (DataSource, error) {
	kind = NormalizeKind(kind)
	if kind == KindAuto {
		kind = Detect(path)
	}
	switch kind {
	case KindProvider:
		return provider.New(path)
	case KindGraph:
		return graph.New(path)
	default:
		return nil, errors.BackendUnsupported(kind)
	}
}

// Detect 根据目录中已有的存储文件判断后端类型，目录为空时按平台选择
func Detect(path string) string {
	if exists(filepath.Join(path, provider.DBFile)) {
		return KindProvider
	}
	if exists(filepath.Join(path, graph.SnapshotFile)) {
		return KindGraph
	}
	switch runtime.GOOS {
	case "darwin", "ios":
		return KindGraph
	default:
		return KindProvider
	}
}

// NormalizeKind 规范化配置中的后端名称
func NormalizeKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		return KindAuto
	case KindProvider, "android", "sqlite":
		return KindProvider
	case KindGraph, "ios", "darwin", "plist":
		return KindGraph
	default:
		return kind
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
