package documentscmder

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

const listShortDesc string = "List generated documents"

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

	app.AddFlags(cmd, app.BackendKeys)
	cmd.Flags().IntVar(&cmder.page, "page", 1, "Page to show")
	cmd.Flags().IntVar(&cmder.pageSize, "page-size", 10, "Documents per page")

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	_, cl, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	page, err := cl.ListDocuments(cmd.Context(), c.page, c.pageSize)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(page.Items) == 0 {
		fmt.Fprintf(out, "\n  %s No documents yet.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Documents"),
		cliui.DimStyle.Render(fmt.Sprintf("(page %d of %d, %d total)", page.Page, page.Pages(), page.Total)),
	)
	for _, d := range page.Items {
		fmt.Fprintf(out, "  %s  %s  %s  %s\n",
			cliui.NameStyle.Render(d.ID),
			cliui.ValueStyle.Render(d.Filename),
			cliui.KeyStyle.Render(d.DocType),
			cliui.DimStyle.Render(d.CreatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprintln(out)

	return nil
}
