package contactsbridge

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	// windows only
	cobra.MousetrapHelpText = ""

	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "debug")
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "", "config dir, defaults to $CONTACTSBRIDGE_DIR or ~/.contactsbridge")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "contact store dir")
	rootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", "contact store backend: provider, graph or auto")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "collation locale used for sorting")
	rootCmd.PersistentPreRun = initLog
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
	}
}

var (
	configDir string
	dataDir   string
	backend   string
	locale    string
)

var rootCmd = &cobra.Command{
	Use:   "contactsbridge",
	Short: "contactsbridge",
	Long:  `contactsbridge exposes one contact API over a provider (SQLite) or graph (plist snapshot) address book.`,
	Example: `contactsbridge server
contactsbridge call getAllContacts '{"withProperties":true}'`,
	Args: cobra.MinimumNArgs(0),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

// cmdConf 只收集命令行中显式设置的参数，未设置的使用配置文件或默认值
func cmdConf(cmd *cobra.Command) map[string]any {
	conf := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		conf["data_dir"] = dataDir
	}
	if flags.Changed("backend") {
		conf["backend"] = backend
	}
	if flags.Changed("locale") {
		conf["locale"] = locale
	}
	return conf
}
