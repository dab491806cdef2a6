// Package configcmder provides the config command for managing persistent
// gongwen configuration stored in the .gongwen/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/config"
)

const configLongDesc string = `Manage persistent gongwen configuration.

Configuration is stored as config.toml in the .gongwen/ directory and
provides default values for command flags. CLI flags and GONGWEN_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.base_url, server.timeout,
  generate.doc_type, generate.template_id,
  storage.sqlite_path,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  ui.pretty, ui.markdown

Use subcommands to get, set, or list configuration values:
  gongwen config set <key> <value>    Set a configuration value
  gongwen config get <key>            Get a configuration value
  gongwen config list                 List all configuration values

Examples:
  gongwen config set server.base_url https://gongwen.example.gov.cn
  gongwen config set generate.doc_type 请示
  gongwen config get server.timeout
  gongwen config list`

const configShortDesc string = "Manage persistent gongwen configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(out io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
