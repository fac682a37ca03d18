package bridge

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sjzar/contactsbridge/internal/bridge/channel"
	"github.com/sjzar/contactsbridge/internal/bridge/conf"
	"github.com/sjzar/contactsbridge/internal/bridge/database"
	"github.com/sjzar/contactsbridge/internal/bridge/http"
	"github.com/sjzar/contactsbridge/internal/bridge/permission"
	"github.com/sjzar/contactsbridge/pkg/config"
)

// Manager 组装并管理各个服务
type Manager struct {
	sc  *conf.ServerConfig
	scm *config.Manager

	// Services
	db   *database.Service
	perm *permission.Manager
	ch   *channel.Channel
	http *http.Service
}

func New() *Manager {
	return &Manager{}
}

// init 加载配置并创建服务，prompter 为空时按配置的授权策略应答
func (m *Manager) init(configPath string, cmdConf map[string]any, prompter permission.Prompter) error {
	var err error
	m.sc, m.scm, err = conf.LoadServiceConfig(configPath, cmdConf)
	if err != nil {
		return err
	}

	if prompter == nil {
		prompter, err = permission.NewPolicyPrompter(m.sc.GetPermissionPolicy())
		if err != nil {
			return err
		}
	}

	m.db = database.NewService(m.sc)
	m.perm = permission.New(m.db.Kind(), m.sc.GetPermissionStatus(), m.scm, prompter)
	m.ch = channel.New(m.sc, m.db, m.perm)
	return nil
}

// StartService 按依赖顺序启动服务
func (m *Manager) StartService() error {
	if err := m.db.Start(); err != nil {
		return err
	}
	if err := m.ch.Start(); err != nil {
		m.db.Stop()
		return err
	}
	return nil
}

// StopService 按依赖的反序停止服务
func (m *Manager) StopService() error {
	var errs []error

	if m.http != nil {
		if err := m.http.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.ch != nil {
		if err := m.ch.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.db != nil {
		if err := m.db.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	// 如果有错误，返回第一个错误
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (m *Manager) CommandHTTPServer(configPath string, cmdConf map[string]any) error {
	if err := m.init(configPath, cmdConf, nil); err != nil {
		return err
	}

	log.Info().Msgf("backend: %s, data dir: %s, permission: %s", m.db.Kind(), m.sc.GetDataDir(), m.perm.Status())

	m.http = http.NewService(m.sc, m.db, m.ch)

	// 存储打开失败时 HTTP 服务仍然启动，接口返回 NO_CONTEXT
	if err := m.db.Start(); err != nil {
		log.Error().Err(err).Msg("open contact store failed")
	}
	if err := m.ch.Start(); err != nil {
		return err
	}
	defer m.StopService()

	return m.http.ListenAndServe()
}

// Shutdown 停止正在运行的服务
func (m *Manager) Shutdown() error {
	return m.StopService()
}

// CommandCall 在本地执行一次通道调用
func (m *Manager) CommandCall(configPath string, cmdConf map[string]any, req *channel.Request) (*channel.Response, error) {
	if err := m.init(configPath, cmdConf, nil); err != nil {
		return nil, err
	}
	if err := m.StartService(); err != nil {
		return nil, err
	}
	defer m.StopService()

	return m.ch.Handle(context.Background(), req), nil
}

// CommandPermission 查询或请求通讯录权限
func (m *Manager) CommandPermission(configPath string, cmdConf map[string]any, request bool, readOnly bool, prompter permission.Prompter) (string, error) {
	if err := m.init(configPath, cmdConf, prompter); err != nil {
		return "", err
	}
	if !request {
		return m.perm.Status(), nil
	}
	return m.perm.Request(context.Background(), readOnly)
}

// Seed 导入文件格式
//
//	contacts:
//	  - name: {givenName: Ann}
//	    phones: [{number: 555-1234, label: mobile}]
type Seed struct {
	Contacts []map[string]interface{} `yaml:"contacts"`
}

// CommandImport 通过通道逐个创建 seed 文件中的联系人，返回创建的 id
func (m *Manager) CommandImport(configPath string, cmdConf map[string]any, file string) ([]string, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var seed Seed
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", file, err)
	}

	if err := m.init(configPath, cmdConf, nil); err != nil {
		return nil, err
	}
	if err := m.StartService(); err != nil {
		return nil, err
	}
	defer m.StopService()

	ids := make([]string, 0, len(seed.Contacts))
	for i, contact := range seed.Contacts {
		result, err := m.ch.Invoke(context.Background(), channel.MethodCreateContact, map[string]interface{}{"contact": contact})
		if err != nil {
			return ids, fmt.Errorf("contacts[%d]: %w", i, err)
		}
		id, _ := result.(map[string]interface{})["id"].(string)
		log.Debug().Msgf("imported contacts[%d] as %s", i, id)
		ids = append(ids, id)
	}
	return ids, nil
}
