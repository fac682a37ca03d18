package database

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/contactsbridge/internal/addressbook/datasource"
	"github.com/sjzar/contactsbridge/internal/addressbook/repository"
	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/pkg/util"
)

const (
	StateInit = iota
	StateReady
	StateError
)

// WatchGroup 存储文件监控的回调分组
const WatchGroup = "store"

type Config interface {
	GetBackend() string
	GetDataDir() string
	GetLocale() string
	GetWatch() bool
}

type Service struct {
	conf Config

	mutex      sync.RWMutex
	repo       *repository.Repository
	state      int
	stateMsg   string
	lastChange time.Time
}

func NewService(conf Config) *Service {
	return &Service{
		conf: conf,
	}
}

// Start 打开联系人存储
func (s *Service) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.repo != nil {
		return nil
	}

	dataDir := s.conf.GetDataDir()
	if err := util.PrepareDir(dataDir); err != nil {
		s.setError(err)
		return err
	}

	ds, err := datasource.New(s.conf.GetBackend(), dataDir)
	if err != nil {
		s.setError(err)
		return err
	}

	if s.conf.GetWatch() {
		if err := ds.SetCallback(WatchGroup, s.onChange); err != nil {
			log.Warn().Err(err).Msg("watch contact store failed")
		}
	}

	s.repo = repository.New(ds, s.conf.GetLocale())
	s.state = StateReady
	s.stateMsg = ""
	log.Info().Msgf("contact store opened: %s %s (%s)", ds.Kind(), ds.Version(), dataDir)
	return nil
}

func (s *Service) Stop() error {
	s.mutex.Lock()
	repo := s.repo
	s.repo = nil
	s.state = StateInit
	s.mutex.Unlock()

	// 关闭存储时会等待文件监控回调，不能持有锁
	if repo != nil {
		return repo.Close()
	}
	return nil
}

func (s *Service) setError(err error) {
	s.state = StateError
	s.stateMsg = err.Error()
}

func (s *Service) onChange(event fsnotify.Event) error {
	s.mutex.Lock()
	s.lastChange = time.Now()
	s.mutex.Unlock()
	log.Debug().Msgf("contact store changed: %s", event)
	return nil
}

// GetRepository 存储未打开时返回 NO_CONTEXT
func (s *Service) GetRepository() (*repository.Repository, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.repo == nil {
		reason := "store not opened"
		if s.state == StateError {
			reason = s.stateMsg
		}
		return nil, errors.NoContext(reason)
	}
	return s.repo, nil
}

// GetState 返回存储状态和错误描述
func (s *Service) GetState() (int, string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state, s.stateMsg
}

func (s *Service) LastChange() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastChange
}

// Kind 返回已打开存储的后端类型，未打开时按配置推断
func (s *Service) Kind() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.repo != nil {
		return s.repo.DataSource().Kind()
	}
	kind := datasource.NormalizeKind(s.conf.GetBackend())
	if kind == datasource.KindAuto {
		kind = datasource.Detect(s.conf.GetDataDir())
	}
	return kind
}
