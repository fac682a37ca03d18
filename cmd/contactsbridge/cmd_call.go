package contactsbridge

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/contactsbridge/internal/bridge"
	"github.com/sjzar/contactsbridge/internal/bridge/channel"
)

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Long = "Invoke a channel method against the local store.\n\nMethods:\n  " +
		strings.Join(channel.Methods(), "\n  ")
	callCmd.ValidArgs = channel.Methods()
}

var callCmd = &cobra.Command{
	Use:   "call <method> [json-args]",
	Short: "Invoke a channel method against the local store",
	Example: `contactsbridge call getContact '{"id":"1","withPhoto":true}'
contactsbridge call createContact '{"contact":{"name":{"givenName":"Ann"}}}'`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		req := &channel.Request{Method: args[0]}
		if len(args) == 2 {
			var arguments interface{}
			if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
				log.Err(err).Msg("invalid json arguments")
				os.Exit(2)
			}
			req.Arguments = arguments
		}

		resp, err := bridge.New().CommandCall(configDir, cmdConf(cmd), req)
		if err != nil {
			log.Err(err).Msg("failed to call method")
			os.Exit(1)
		}

		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			log.Err(err).Msg("failed to encode response")
			os.Exit(1)
		}
		fmt.Println(string(b))
		if resp.Error != nil {
			os.Exit(1)
		}
	},
}
