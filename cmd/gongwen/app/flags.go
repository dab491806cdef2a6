package app

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/pkg/config"
)

// BackendKeys are the registry flags of commands that only call the backend.
var BackendKeys = []string{
	config.FlagServer,
	config.FlagTimeout,
}

// GenerationKeys are the registry flags of commands that run generations.
var GenerationKeys = []string{
	config.FlagServer,
	config.FlagTimeout,
	config.FlagDocType,
	config.FlagTemplate,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

// AddFlags registers the string registry flags named by keys on cmd. Values
// are read back through Load, so the flag targets are not kept.
func AddFlags(cmd *cobra.Command, keys []string) {
	for _, key := range keys {
		config.AddStringFlag(cmd, config.GenerationFlags, key, new(string))
	}
}

// AddMarkdownFlag registers --markdown on cmd. Read the merged value from
// Config.UI.Markdown.
func AddMarkdownFlag(cmd *cobra.Command) {
	config.AddBoolFlag(cmd, config.GenerationFlags, config.FlagMarkdown, new(bool))
}

// Keys returns base followed by extra, leaving base untouched.
func Keys(base []string, extra ...string) []string {
	return slices.Concat(base, extra)
}
