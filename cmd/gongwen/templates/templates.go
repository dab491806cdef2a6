// Package templatescmder provides the templates command for managing the
// document templates generations can be based on.
package templatescmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/config"
)

// templateKeys adds --template so the configured default can be shown and
// overridden.
var templateKeys = app.Keys(app.BackendKeys, config.FlagTemplate)

const templatesLongDesc string = `Manage document templates on the backend.

Use subcommands to list, upload, select, or delete templates:
  gongwen templates list                               List templates
  gongwen templates upload <file> --name <name> -t 通知   Upload a .docx template
  gongwen templates select <id>                        Generate from this template by default
  gongwen templates select --clear                     Stop using a default template
  gongwen templates delete <id>                        Delete a template`

const templatesShortDesc string = "Manage document templates"

func NewTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: templatesShortDesc,
		Long:  templatesLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newSelectCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}
