package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/contactsbridge/internal/addressbook/datasource"
	"github.com/sjzar/contactsbridge/internal/errors"
)

// 授权状态，provider 与 graph 两套词汇
const (
	StatusGranted         = "granted"
	StatusGrantedReadOnly = "grantedReadOnly"
	StatusDenied          = "denied"

	StatusNotDetermined = "notDetermined"
	StatusRestricted    = "restricted"
	StatusAuthorized    = "authorized"
	StatusLimited       = "limited"
)

// ConfigKey 授权状态在配置文件中的键
const ConfigKey = "permission.status"

var providerStatuses = map[string]bool{
	StatusGranted:         true,
	StatusGrantedReadOnly: true,
	StatusDenied:          true,
}

var graphStatuses = map[string]bool{
	StatusNotDetermined: true,
	StatusRestricted:    true,
	StatusDenied:        true,
	StatusAuthorized:    true,
	StatusLimited:       true,
}

// Store 持久化授权状态，*config.Manager 满足该接口
type Store interface {
	Persist(key string, value interface{}) error
}

// Manager 维护当前后端的通讯录授权状态
type Manager struct {
	kind     string
	store    Store
	prompter Prompter

	mutex  sync.Mutex
	status string
}

// New 创建授权管理器，status 不属于该后端词汇时使用默认状态
func New(kind, status string, store Store, prompter Prompter) *Manager {
	m := &Manager{
		kind:     kind,
		store:    store,
		prompter: prompter,
	}
	if m.valid(status) {
		m.status = status
	} else {
		if status != "" {
			log.Warn().Msgf("ignore permission status %q for %s backend", status, kind)
		}
		m.status = m.defaultStatus()
	}
	return m
}

func (m *Manager) valid(status string) bool {
	if m.kind == datasource.KindGraph {
		return graphStatuses[status]
	}
	return providerStatuses[status]
}

func (m *Manager) defaultStatus() string {
	if m.kind == datasource.KindGraph {
		return StatusNotDetermined
	}
	return StatusDenied
}

func (m *Manager) Kind() string {
	return m.kind
}

// SetPrompter 挂载或卸载授权提示器
func (m *Manager) SetPrompter(p Prompter) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.prompter = p
}

// Status 返回当前授权状态
func (m *Manager) Status() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.status
}

func (m *Manager) CanRead() bool {
	return m.canRead(m.Status())
}

func (m *Manager) CanWrite() bool {
	return m.canWrite(m.Status())
}

func (m *Manager) canRead(status string) bool {
	switch status {
	case StatusGranted, StatusGrantedReadOnly, StatusAuthorized, StatusLimited:
		return true
	}
	return false
}

func (m *Manager) canWrite(status string) bool {
	switch status {
	case StatusGranted, StatusAuthorized, StatusLimited:
		return true
	}
	return false
}

// Check 校验读或写权限
func (m *Manager) Check(write bool) error {
	status := m.Status()
	if write && !m.canWrite(status) {
		return errors.PermissionDenied(status)
	}
	if !write && !m.canRead(status) {
		return errors.PermissionDenied(status)
	}
	return nil
}

// Request 请求授权，返回 "granted"、"grantedReadOnly" 或 "denied"
// 已持有所需权限时不会触发提示
func (m *Manager) Request(ctx context.Context, readOnly bool) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.kind == datasource.KindGraph {
		return m.requestGraph(ctx)
	}
	return m.requestProvider(ctx, readOnly)
}

func (m *Manager) requestProvider(ctx context.Context, readOnly bool) (string, error) {
	if m.canRead(m.status) && (readOnly || m.canWrite(m.status)) {
		return StatusGranted, nil
	}
	if m.prompter == nil {
		return "", errors.NoActivity()
	}

	answer, err := m.prompter.Prompt(ctx, readOnly)
	if err != nil {
		return "", errors.PermissionFailed(err)
	}

	var status, result string
	switch {
	case readOnly && answer.allowsRead():
		status, result = StatusGrantedReadOnly, StatusGranted
		if m.status == StatusGranted {
			status = StatusGranted
		}
	case readOnly:
		status, result = StatusDenied, StatusDenied
	case answer == AnswerAllow:
		status, result = StatusGranted, StatusGranted
	case answer.allowsRead():
		status, result = StatusGrantedReadOnly, StatusGrantedReadOnly
	default:
		status, result = StatusDenied, StatusDenied
	}

	if err := m.save(status); err != nil {
		return "", err
	}
	return result, nil
}

func (m *Manager) requestGraph(ctx context.Context) (string, error) {
	switch m.status {
	case StatusAuthorized, StatusLimited:
		return StatusGranted, nil
	case StatusDenied, StatusRestricted:
		// 已拒绝或受限时不再提示
		return StatusDenied, nil
	}
	if m.prompter == nil {
		return "", errors.NoActivity()
	}

	answer, err := m.prompter.Prompt(ctx, false)
	if err != nil {
		return "", errors.PermissionFailed(err)
	}

	status, result := StatusDenied, StatusDenied
	switch answer {
	case AnswerAllow, AnswerAllowReadOnly:
		status, result = StatusAuthorized, StatusGranted
	case AnswerLimited:
		status, result = StatusLimited, StatusGranted
	}

	if err := m.save(status); err != nil {
		return "", err
	}
	return result, nil
}

// save 先持久化再更新内存状态，调用方持有锁
func (m *Manager) save(status string) error {
	if m.store != nil {
		if err := m.store.Persist(ConfigKey, status); err != nil {
			return errors.PermissionFailed(fmt.Errorf("persist permission status: %w", err))
		}
	}
	log.Info().Msgf("contacts permission %s -> %s", m.status, status)
	m.status = status
	return nil
}
