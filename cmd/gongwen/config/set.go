package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file stored
in the .gongwen/ directory, creating ~/.gongwen/ when no directory
exists yet. Values are validated before they are written.

Examples:
  gongwen config set server.base_url http://localhost:8000
  gongwen config set server.timeout 30s
  gongwen config set eventstream.brokers kafka-1:9092,kafka-2:9092
  gongwen config set ui.markdown false`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			key, value := args[0], args[1]

			if err := checkKey(key); err != nil {
				return err
			}

			target, err := app.SetConfigValue(configDir, key, value)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTarget(out, target)
			fmt.Fprintf(out, "  %s Set %s = %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(key),
				cliui.ValueStyle.Render(value),
			)
			return nil
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}
