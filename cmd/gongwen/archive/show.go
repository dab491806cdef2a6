package archivecmder

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/storage"
)

const showShortDesc string = "Print an archived generation"

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, err := openStore(cmd, app.Keys(archiveKeys, config.FlagMarkdown)...)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				var nf storage.NotFoundError
				if errors.As(err, &nf) {
					return fmt.Errorf("no archived generation %q", args[0])
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s\n", cliui.KeyValue("Request", rec.Prompt))
			fmt.Fprintln(out, cliui.KeyValue("Doc type", rec.DocType))
			fmt.Fprintln(out, cliui.KeyValue("Created", rec.CreatedAt.Local().Format(time.DateTime)))
			fmt.Fprintln(out, cliui.KeyValue("Duration", cliui.FormatDuration(time.Duration(rec.DurationMs)*time.Millisecond)))
			if rec.ConvID != "" {
				fmt.Fprintln(out, cliui.KeyValue("Conversation", rec.ConvID))
			}
			if rec.DocxFile != "" {
				fmt.Fprintln(out, cliui.KeyValue("Document", rec.DocxFile))
			}
			if rec.Failed {
				fmt.Fprintf(out, "\n  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render("generation failed"))
			}
			fmt.Fprintln(out)

			content := rec.Content
			if a.Config.UI.Markdown && !rec.Failed {
				content = cliui.Document(out, content)
			}
			fmt.Fprintln(out, content)

			return nil
		},
	}

	app.AddFlags(cmd, archiveKeys)
	app.AddMarkdownFlag(cmd)

	return cmd
}
