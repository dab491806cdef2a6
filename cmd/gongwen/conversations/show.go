package conversationscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/dotdir"
)

const showShortDesc string = "Show a conversation's messages"

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}

	app.AddFlags(cmd, app.BackendKeys)
	app.AddMarkdownFlag(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, id string) error {
	a, err := app.Load(cmd, app.Keys(app.BackendKeys, config.FlagMarkdown)...)
	if err != nil {
		return err
	}
	c, err := a.Client()
	if err != nil {
		return err
	}

	detail, err := c.GetConversation(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("loading conversation %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render(detail.Title),
		cliui.DimStyle.Render("("+detail.ID+")"),
	)

	for _, msg := range detail.History() {
		content := msg.Content
		if msg.Role == conversation.RoleUser {
			fmt.Fprintf(out, "%s %s\n\n", cliui.UserStyle.Render("你>"), content)
			continue
		}

		if a.Config.UI.Markdown {
			content = cliui.Document(out, content)
		}
		fmt.Fprintf(out, "%s\n%s\n", cliui.BotStyle.Render("公文>"), content)
		if msg.DocxFile != "" {
			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("📄 "+msg.DocxFile))
		}
		fmt.Fprintln(out)
	}

	return nil
}

const useShortDesc string = "Continue a conversation with \"gongwen chat --resume\""

func newUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: useShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUse(cmd, args[0])
		},
	}

	app.AddFlags(cmd, app.BackendKeys)

	return cmd
}

func runUse(cmd *cobra.Command, id string) error {
	a, c, err := app.LoadClient(cmd)
	if err != nil {
		return err
	}

	detail, err := c.GetConversation(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("loading conversation %s: %w", id, err)
	}

	err = dotdir.NewManager().SaveActive(&dotdir.ActiveConversation{
		ConvID:  detail.ID,
		DocType: detail.DocType,
		Title:   detail.Title,
	}, a.ConfigDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Active conversation: %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(detail.ID),
	)
	return nil
}
