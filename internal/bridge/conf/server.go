package conf

import (
	"runtime"

	"github.com/sjzar/contactsbridge/internal/addressbook/datasource"
	"github.com/sjzar/contactsbridge/pkg/util"
)

const (
	DefaultHTTPAddr = "127.0.0.1:5040"
	DefaultLocale   = "en"
	DefaultWorkers  = 4
)

type ServerConfig struct {
	ConfigDir  string     `mapstructure:"-" json:"config_dir"`
	Backend    string     `mapstructure:"backend" json:"backend"`
	DataDir    string     `mapstructure:"data_dir" json:"data_dir"`
	HTTPAddr   string     `mapstructure:"http_addr" json:"http_addr"`
	Locale     string     `mapstructure:"locale" json:"locale"`
	Workers    int        `mapstructure:"workers" json:"workers"`
	Watch      bool       `mapstructure:"watch" json:"watch"`
	Permission Permission `mapstructure:"permission" json:"permission"`
}

// Permission 持久化的授权状态与无人值守时的授权策略
type Permission struct {
	Status string `mapstructure:"status" json:"status"`
	Policy string `mapstructure:"policy" json:"policy"`
}

func ServerDefaults() map[string]any {
	return map[string]any{
		"backend":           datasource.KindAuto,
		"data_dir":          util.DefaultDataDir(),
		"http_addr":         DefaultHTTPAddr,
		"locale":            DefaultLocale,
		"workers":           DefaultWorkers,
		"watch":             true,
		"permission.status": "",
		"permission.policy": "allow",
	}
}

func (c *ServerConfig) GetBackend() string {
	if c.Backend == "" {
		c.Backend = datasource.KindAuto
	}
	return c.Backend
}

func (c *ServerConfig) GetDataDir() string {
	if c.DataDir == "" {
		c.DataDir = util.DefaultDataDir()
	}
	return c.DataDir
}

func (c *ServerConfig) GetHTTPAddr() string {
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	return c.HTTPAddr
}

func (c *ServerConfig) GetLocale() string {
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	return c.Locale
}

func (c *ServerConfig) GetWorkers() int {
	if c.Workers <= 0 {
		c.Workers = min(DefaultWorkers, runtime.NumCPU())
	}
	return c.Workers
}

func (c *ServerConfig) GetWatch() bool {
	return c.Watch
}

func (c *ServerConfig) GetPermissionStatus() string {
	return c.Permission.Status
}

func (c *ServerConfig) GetPermissionPolicy() string {
	return c.Permission.Policy
}
