// Package conversationscmder provides the conversations command for browsing
// and managing conversations stored by the backend.
package conversationscmder

import (
	"github.com/spf13/cobra"
)

const conversationsLongDesc string = `Browse and manage conversations stored by the backend.

Use subcommands to list, show, delete, or continue conversations:
  gongwen conversations list          List conversations, most recent first
  gongwen conversations show <id>     Show a conversation's messages
  gongwen conversations use <id>      Make it the conversation "gongwen chat --resume" continues
  gongwen conversations delete <id>   Delete a conversation`

const conversationsShortDesc string = "Manage backend conversations"

func NewConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   conversationsShortDesc,
		Long:    conversationsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}
