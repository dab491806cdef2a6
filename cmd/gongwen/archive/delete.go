package archivecmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/storage"
)

const deleteShortDesc string = "Remove a generation from the archive"

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, err := openStore(cmd, archiveKeys...)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				var nf storage.NotFoundError
				if errors.As(err, &nf) {
					return fmt.Errorf("no archived generation %q", args[0])
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Deleted %s from the archive.\n\n",
				cliui.SuccessMark, cliui.NameStyle.Render(args[0]))
			return nil
		},
	}

	app.AddFlags(cmd, archiveKeys)

	return cmd
}
