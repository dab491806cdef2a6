package templatescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
)

type listCommander struct {
	page     int
	pageSize int
}

const listShortDesc string = "List templates"

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	app.AddFlags(cmd, templateKeys)
	cmd.Flags().IntVar(&cmder.page, "page", 1, "Page to show")
	cmd.Flags().IntVar(&cmder.pageSize, "page-size", 10, "Templates per page")

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	a, err := app.Load(cmd, templateKeys...)
	if err != nil {
		return err
	}
	cl, err := a.Client()
	if err != nil {
		return err
	}

	page, err := cl.ListTemplates(cmd.Context(), c.page, c.pageSize)
	if err != nil {
		return fmt.Errorf("listing templates: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(page.Items) == 0 {
		fmt.Fprintf(out, "\n  %s No templates.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	selected := a.Config.Generate.TemplateID

	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Templates"),
		cliui.DimStyle.Render(fmt.Sprintf("(page %d of %d, %d total)", page.Page, page.Pages(), page.Total)),
	)
	for _, t := range page.Items {
		marker := " "
		if t.ID == selected {
			marker = cliui.SuccessMark
		}
		fmt.Fprintf(out, "  %s %s  %s  %s  %s\n",
			marker,
			cliui.NameStyle.Render(t.ID),
			cliui.ValueStyle.Render(t.Name),
			cliui.KeyStyle.Render(t.DocType),
			cliui.DimStyle.Render(t.Filename),
		)
	}
	fmt.Fprintln(out)

	return nil
}
