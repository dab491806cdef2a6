package archivecmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/storage"
	"github.com/papercomputeco/gongwen/pkg/utils"
)

type listCommander struct {
	convID string
	limit  int
	failed bool
}

const listShortDesc string = "List archived generations, newest first"

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

	app.AddFlags(cmd, archiveKeys)
	cmd.Flags().StringVar(&cmder.convID, "conv", "", "Only show generations of this conversation")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of generations to show (0 for all)")
	cmd.Flags().BoolVar(&cmder.failed, "failed", false, "Include failed generations")

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	if c.limit < 0 {
		return fmt.Errorf("invalid --limit %d: must not be negative", c.limit)
	}

	a, store, err := openStore(cmd, archiveKeys...)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := store.List(cmd.Context(), storage.ListOptions{
		ConvID:        c.convID,
		Limit:         c.limit,
		IncludeFailed: c.failed,
	})
	if err != nil {
		return fmt.Errorf("listing archive: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "\n  %s No archived generations.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Archived generations"))
	for _, rec := range records {
		mark := cliui.SuccessMark
		if rec.Failed {
			mark = cliui.FailMark
		}

		fmt.Fprintf(out, "  %s %s  %s  %s  %s\n",
			mark,
			cliui.DimStyle.Render(rec.CreatedAt.Local().Format(time.DateTime)),
			cliui.KeyStyle.Render(rec.DocType),
			cliui.NameStyle.Render(utils.TruncateWidth(rec.Prompt, 30)),
			cliui.DimStyle.Render(rec.ID),
		)
		if rec.DocxFile != "" {
			fmt.Fprintf(out, "      %s\n", cliui.ValueStyle.Render("📄 "+rec.DocxFile))
		}
	}
	fmt.Fprintln(out)

	return nil
}
