package templatescmder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/client"
)

type uploadCommander struct {
	name    string
	docType string
}

const uploadLongDesc string = `Upload a document template.

The template name defaults to the file name without its extension.

Examples:
  gongwen templates upload 通知模板.docx -t 通知
  gongwen templates upload request.docx --name 请示模板 -t 请示`

const uploadShortDesc string = "Upload a template"

func newUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	app.AddFlags(cmd, app.BackendKeys)
	cmd.Flags().StringVarP(&cmder.name, "name", "n", "", "Template name")
	cmd.Flags().StringVarP(&cmder.docType, "doc-type", "t", "", "Document type the template is for")

	return cmd
}

func (c *uploadCommander) run(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening template: %w", err)
	}
	defer f.Close()

	filename := filepath.Base(path)
	name := strings.TrimSpace(c.name)
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	if name == "" {
		return errors.New("template name is required")
	}

	_, cl, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	var tmpl *client.Template
	err = cliui.Step(cmd.ErrOrStderr(), "Uploading "+filename, func() error {
		var uploadErr error
		tmpl, uploadErr = cl.UploadTemplate(cmd.Context(), name, c.docType, filename, f)
		return uploadErr
	})
	if err != nil {
		return fmt.Errorf("uploading template: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Uploaded %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(tmpl.Name),
		cliui.DimStyle.Render("(id "+tmpl.ID+")"),
	)
	return nil
}
