package contactsbridge

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/contactsbridge/internal/bridge"
	"github.com/sjzar/contactsbridge/internal/bridge/permission"
)

func init() {
	rootCmd.AddCommand(permissionCmd)
	permissionCmd.Flags().BoolVarP(&permissionReadOnly, "read-only", "r", false, "request read access only")
}

var permissionReadOnly bool

var permissionCmd = &cobra.Command{
	Use:       "permission [status|request]",
	Short:     "Show or request contacts permission",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"status", "request"},
	Run: func(cmd *cobra.Command, args []string) {
		request := len(args) == 1 && args[0] == "request"
		prompter := &permission.TerminalPrompter{In: os.Stdin, Out: os.Stderr}

		status, err := bridge.New().CommandPermission(configDir, cmdConf(cmd), request, permissionReadOnly, prompter)
		if err != nil {
			log.Err(err).Msg("permission command failed")
			return
		}
		fmt.Println(status)
	},
}
