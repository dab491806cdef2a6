// Package archivecmder provides the archive command for browsing the local
// archive of finished generations.
package archivecmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/storage"
)

const archiveLongDesc string = `Browse the local archive of finished generations.

Every generation run by "gongwen generate", "gongwen chat" or the TUI is
archived on this machine, by default in gongwen.sqlite in the .gongwen/
directory. The archive can be read without the backend.

Examples:
  gongwen archive list
  gongwen archive list --conv 12 --failed
  gongwen archive show 6f1c2a7e-...
  gongwen archive delete 6f1c2a7e-...`

const archiveShortDesc string = "Browse locally archived generations"

var archiveKeys = []string{config.FlagSQLite, config.FlagPostgres}

func NewArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: archiveShortDesc,
		Long:  archiveLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

// openStore loads cmd's configuration and opens the archive. Close the
// returned App when done.
func openStore(cmd *cobra.Command, keys ...string) (*app.App, storage.Driver, error) {
	a, err := app.Load(cmd, keys...)
	if err != nil {
		return nil, nil, err
	}

	store, err := a.Store()
	if err != nil {
		return nil, nil, err
	}

	return a, store, nil
}
