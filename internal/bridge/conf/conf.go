package conf

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/contactsbridge/pkg/config"
)

const (
	AppName          = "contactsbridge"
	ServerConfigName = "contactsbridge-server"
	EnvPrefix        = "CONTACTSBRIDGE"
	EnvConfigDir     = "CONTACTSBRIDGE_DIR"
)

// LoadServiceConfig 加载服务配置，命令行参数覆盖配置文件
func LoadServiceConfig(configPath string, cmdConf map[string]any) (*ServerConfig, *config.Manager, error) {

	if configPath == "" {
		configPath = os.Getenv(EnvConfigDir)
	}

	scm, err := config.New(AppName, configPath, ServerConfigName, EnvPrefix, false)
	if err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, nil, err
	}

	conf := &ServerConfig{}
	config.SetDefaults(scm.Viper, ServerDefaults())

	// Load cmd Conf
	for key, value := range cmdConf {
		scm.SetConfig(key, value)
	}

	if err := scm.Load(conf); err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, nil, err
	}
	conf.ConfigDir = scm.Path

	b, _ := json.Marshal(conf)
	log.Debug().Msgf("server config: %s", string(b))

	return conf, scm, nil
}
