package config

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag describes one CLI flag shared between commands. Commands register
// flags through a FlagSet so that --server means the same thing on
// generate, chat and tui.
type Flag struct {
	Name        string
	Shorthand   string
	ViperKey    string
	Description string
}

// FlagSet maps registry keys to flag definitions.
type FlagSet map[string]Flag

// Registry keys for GenerationFlags.
const (
	FlagServer        = "server"
	FlagTimeout       = "timeout"
	FlagDocType       = "doc-type"
	FlagTemplate      = "template"
	FlagSQLite        = "sqlite"
	FlagPostgres      = "postgres"
	FlagEventProvider = "event-provider"
	FlagEventBrokers  = "event-brokers"
	FlagEventTopic    = "event-topic"
	FlagMarkdown      = "markdown"
)

func newFlagSet(flags ...Flag) FlagSet {
	fs := make(FlagSet, len(flags))
	for _, f := range flags {
		fs[f.Name] = f
	}
	return fs
}

// GenerationFlags are shared by every command that runs a generation.
var GenerationFlags = newFlagSet(
	Flag{FlagServer, "s", "server.base_url", "Backend base URL"},
	Flag{FlagTimeout, "", "server.timeout", "Timeout for backend calls and for the stream to start"},
	Flag{FlagDocType, "t", "generate.doc_type", "Document type to generate (e.g. 通知, 请示, 报告)"},
	Flag{FlagTemplate, "", "generate.template_id", "Template ID to generate from"},
	Flag{FlagSQLite, "", "storage.sqlite_path",
		"Path to the SQLite archive of finished generations (default: <config dir>/gongwen.sqlite, \"memory\" for in-memory)"},
	Flag{FlagPostgres, "", "storage.postgres_dsn", "PostgreSQL connection string for a shared archive (overrides --sqlite)"},
	Flag{FlagEventProvider, "", "eventstream.provider", "Where to publish generation events (nop, kafka)"},
	Flag{FlagEventBrokers, "", "eventstream.brokers", "Comma separated Kafka brokers"},
	Flag{FlagEventTopic, "", "eventstream.topic", "Kafka topic for generation events"},
	Flag{FlagMarkdown, "", "ui.markdown", "Render finished documents as markdown"},
)

// defaults holds NewDefaultConfig as viper values for flag defaults.
var defaults = sync.OnceValue(func() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
})

// AddStringFlag registers the string flag key from fs on cmd, defaulting
// to the value NewDefaultConfig gives its viper key. Unknown keys are
// ignored.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	if f, ok := fs[key]; ok {
		cmd.Flags().StringVarP(target, f.Name, f.Shorthand, defaults().GetString(f.ViperKey), f.Description)
	}
}

// AddBoolFlag is AddStringFlag for bool flags.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	if f, ok := fs[key]; ok {
		cmd.Flags().BoolVarP(target, f.Name, f.Shorthand, defaults().GetBool(f.ViperKey), f.Description)
	}
}

// BindRegisteredFlags binds the registered flags named by keys to their
// viper keys, giving flag > env > config file > default precedence. Call
// it after InitViper. Keys missing from fs or from cmd are skipped.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		f, ok := fs[key]
		if !ok {
			continue
		}
		if pf := lookupFlag(cmd, f.Name); pf != nil {
			_ = v.BindPFlag(f.ViperKey, pf)
		}
	}
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if pf := cmd.Flags().Lookup(name); pf != nil {
		return pf
	}
	return cmd.InheritedFlags().Lookup(name)
}
