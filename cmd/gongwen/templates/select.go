package templatescmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/client"
)

const selectLongDesc string = `Select the template generations use by default.

The choice is stored as generate.template_id in config.toml; the
--template flag of generate, chat and tui still overrides it.

Examples:
  gongwen templates select 2
  gongwen templates select --clear`

const selectShortDesc string = "Select the default template"

func newSelectCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "select [id]",
		Short: selectShortDesc,
		Long:  selectLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case clear:
				return runSelect(cmd, "")
			case len(args) == 1:
				return runSelect(cmd, args[0])
			default:
				return errors.New("template id argument required (or --clear)")
			}
		},
	}

	app.AddFlags(cmd, app.BackendKeys)
	cmd.Flags().BoolVar(&clear, "clear", false, "Stop using a default template")

	return cmd
}

func runSelect(cmd *cobra.Command, id string) error {
	a, cl, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	name := ""
	if id != "" {
		name, err = templateName(cmd, cl, id)
		if err != nil {
			return err
		}
	}

	if _, err := app.SetConfigValue(a.ConfigDir, "generate.template_id", id); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if id == "" {
		fmt.Fprintf(out, "\n  %s Cleared the default template.\n\n", cliui.SuccessMark)
		return nil
	}
	fmt.Fprintf(out, "\n  %s Generating from %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(name),
		cliui.DimStyle.Render("(id "+id+")"),
	)
	return nil
}

// templateName looks id up across every page of templates.
func templateName(cmd *cobra.Command, cl *client.Client, id string) (string, error) {
	for page := 1; ; page++ {
		p, err := cl.ListTemplates(cmd.Context(), page, 50)
		if err != nil {
			return "", fmt.Errorf("listing templates: %w", err)
		}
		for _, t := range p.Items {
			if t.ID == id {
				return t.Name, nil
			}
		}
		if page >= p.Pages() || len(p.Items) == 0 {
			return "", fmt.Errorf("template %q not found", id)
		}
	}
}
