package templatescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
)

const deleteShortDesc string = "Delete a template"

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0])
		},
	}

	app.AddFlags(cmd, templateKeys)

	return cmd
}

func runDelete(cmd *cobra.Command, id string) error {
	a, err := app.Load(cmd, templateKeys...)
	if err != nil {
		return err
	}
	cl, err := a.Client()
	if err != nil {
		return err
	}

	if err := cl.DeleteTemplate(cmd.Context(), id); err != nil {
		return fmt.Errorf("deleting template %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n  %s Deleted template %s.\n", cliui.SuccessMark, cliui.NameStyle.Render(id))

	if a.Config.Generate.TemplateID == id {
		if _, err := app.SetConfigValue(a.ConfigDir, "generate.template_id", ""); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("It was the default template; generations no longer use one."))
	}
	fmt.Fprintln(out)

	return nil
}
