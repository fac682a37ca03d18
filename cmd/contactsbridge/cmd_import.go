package contactsbridge

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/contactsbridge/internal/bridge"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Create the contacts listed in a YAML seed file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ids, err := bridge.New().CommandImport(configDir, cmdConf(cmd), args[0])
		for _, id := range ids {
			fmt.Println(id)
		}
		if err != nil {
			log.Err(err).Msgf("import stopped after %d contacts", len(ids))
			return
		}
		log.Info().Msgf("imported %d contacts", len(ids))
	},
}
