package contactsbridge

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/contactsbridge/internal/bridge"
)

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&serverAddr, "addr", "a", "", "server address, defaults to 127.0.0.1:5040")
	serverCmd.Flags().IntVarP(&serverWorkers, "workers", "w", 0, "dispatch worker count")
	serverCmd.Flags().StringVar(&serverPolicy, "permission-policy", "", "answer to permission requests: allow, allow_read_only, limited, deny or none")
	serverCmd.Flags().BoolVar(&serverNoWatch, "no-watch", false, "do not reload the store when another process changes it")
}

var (
	serverAddr    string
	serverWorkers int
	serverPolicy  string
	serverNoWatch bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		conf := cmdConf(cmd)
		if cmd.Flags().Changed("addr") {
			conf["http_addr"] = serverAddr
		}
		if cmd.Flags().Changed("workers") {
			conf["workers"] = serverWorkers
		}
		if cmd.Flags().Changed("permission-policy") {
			conf["permission.policy"] = serverPolicy
		}
		if serverNoWatch {
			conf["watch"] = false
		}

		m := bridge.New()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Info().Msg("shutting down")
			m.Shutdown()
		}()

		if err := m.CommandHTTPServer(configDir, conf); err != nil {
			log.Err(err).Msg("failed to start server")
			return
		}
	},
}
