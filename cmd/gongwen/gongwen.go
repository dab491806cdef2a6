// Package gongwencmder
package gongwencmder

import (
	"github.com/spf13/cobra"

	archivecmder "github.com/papercomputeco/gongwen/cmd/gongwen/archive"
	authcmder "github.com/papercomputeco/gongwen/cmd/gongwen/auth"
	chatcmder "github.com/papercomputeco/gongwen/cmd/gongwen/chat"
	configcmder "github.com/papercomputeco/gongwen/cmd/gongwen/config"
	conversationscmder "github.com/papercomputeco/gongwen/cmd/gongwen/conversations"
	documentscmder "github.com/papercomputeco/gongwen/cmd/gongwen/documents"
	generatecmder "github.com/papercomputeco/gongwen/cmd/gongwen/generate"
	initcmder "github.com/papercomputeco/gongwen/cmd/gongwen/init"
	mockcmder "github.com/papercomputeco/gongwen/cmd/gongwen/mock"
	modelscmder "github.com/papercomputeco/gongwen/cmd/gongwen/models"
	templatescmder "github.com/papercomputeco/gongwen/cmd/gongwen/templates"
	tuicmder "github.com/papercomputeco/gongwen/cmd/gongwen/tui"
	versioncmder "github.com/papercomputeco/gongwen/cmd/version"
)

const gongwenLongDesc string = `gongwen drafts official documents (公文) with a streaming generation backend.

Generate a document:
  gongwen generate -t 通知 "下周一召开安全生产工作会议"

Work interactively:
  gongwen chat          Line based conversation
  gongwen tui           Conversations, chat and live preview side by side

Manage the backend:
  gongwen conversations, gongwen templates, gongwen documents, gongwen models

Configure the client:
  gongwen init, gongwen config, gongwen auth

Try it without a backend:
  gongwen mock &
  gongwen generate --server http://localhost:8765 "测试"`

const gongwenShortDesc string = "gongwen - 公文 generation client"

func NewGongwenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gongwen",
		Short:        gongwenShortDesc,
		Long:         gongwenLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .gongwen/ config directory")

	// Add subcommands
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(conversationscmder.NewConversationsCmd())
	cmd.AddCommand(templatescmder.NewTemplatesCmd())
	cmd.AddCommand(documentscmder.NewDocumentsCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(archivecmder.NewArchiveCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(mockcmder.NewMockCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
