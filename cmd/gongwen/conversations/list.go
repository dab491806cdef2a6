package conversationscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/dotdir"
	"github.com/papercomputeco/gongwen/pkg/utils"
)

const listShortDesc string = "List conversations"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	app.AddFlags(cmd, app.BackendKeys)

	return cmd
}

func runList(cmd *cobra.Command) error {
	a, c, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	conversations, err := c.ListConversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(conversations) == 0 {
		fmt.Fprintf(out, "\n  %s No conversations yet.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	active, _ := dotdir.NewManager().LoadActive(a.ConfigDir)

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Conversations"))
	for _, conv := range conversations {
		marker := " "
		if active != nil && active.ConvID == conv.ID {
			marker = cliui.SuccessMark
		}
		fmt.Fprintf(out, "  %s %s  %s  %s  %s\n",
			marker,
			cliui.NameStyle.Render(conv.ID),
			cliui.ValueStyle.Render(utils.TruncateWidth(conv.Title, 30)),
			cliui.KeyStyle.Render(conv.DocType),
			cliui.DimStyle.Render(conv.UpdatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprintln(out)

	return nil
}
