// Package documentscmder provides the documents command for listing and
// downloading the .docx files the backend generated.
package documentscmder

import (
	"github.com/spf13/cobra"
)

const documentsLongDesc string = `List and download generated documents.

Use subcommands to list or download documents:
  gongwen documents list                 List generated documents, newest first
  gongwen documents download <id>        Save a document under its own filename
  gongwen documents download <id> -o f   Save a document to f ("-" for stdout)`

const documentsShortDesc string = "List and download generated documents"

func NewDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   documentsShortDesc,
		Long:    documentsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDownloadCmd())

	return cmd
}
