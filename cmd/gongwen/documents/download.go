package documentscmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/client"
)

type downloadCommander struct {
	output string
}

const downloadLongDesc string = `Download a generated document.

Without --output the document is saved in the current directory under the
filename the backend gave it.

Examples:
  gongwen documents download 7
  gongwen documents download 7 -o 通知.docx
  gongwen documents download 7 -o - > 通知.docx`

const downloadShortDesc string = "Download a generated document"

func newDownloadCmd() *cobra.Command {
	cmder := &downloadCommander{}

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: downloadShortDesc,
		Long:  downloadLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	app.AddFlags(cmd, app.BackendKeys)
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "File to write (\"-\" for stdout)")

	return cmd
}

func (c *downloadCommander) run(cmd *cobra.Command, id string) error {
	_, cl, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	if c.output == "-" {
		_, err := cl.DownloadDocument(cmd.Context(), id, cmd.OutOrStdout())
		return err
	}

	path := c.output
	if path == "" {
		path = documentFilename(cmd.Context(), cl, id)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	n, err := cl.DownloadDocument(cmd.Context(), id, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Saved %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(path),
		cliui.DimStyle.Render(fmt.Sprintf("(%d bytes)", n)),
	)
	return nil
}

// documentFilename finds the backend's filename for id, falling back to
// "<id>.docx".
func documentFilename(ctx context.Context, cl *client.Client, id string) string {
	fallback := id + ".docx"
	for page := 1; ; page++ {
		p, err := cl.ListDocuments(ctx, page, 50)
		if err != nil {
			return fallback
		}
		for _, d := range p.Items {
			if d.ID == id && d.Filename != "" {
				return filepath.Base(d.Filename)
			}
		}
		if page >= p.Pages() || len(p.Items) == 0 {
			return fallback
		}
	}
}
