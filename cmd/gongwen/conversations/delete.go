package conversationscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/dotdir"
)

const deleteShortDesc string = "Delete a conversation"

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0])
		},
	}

	app.AddFlags(cmd, app.BackendKeys)

	return cmd
}

func runDelete(cmd *cobra.Command, id string) error {
	a, c, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	if err := c.DeleteConversation(cmd.Context(), id); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}

	// A deleted conversation cannot be resumed.
	ddm := dotdir.NewManager()
	if active, _ := ddm.LoadActive(a.ConfigDir); active != nil && active.ConvID == id {
		if err := ddm.ClearActive(a.ConfigDir); err != nil {
			a.Logger.Warn("could not clear active conversation", "error", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Deleted conversation %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(id))
	return nil
}
