// Package chatcmder provides the chat command for an interactive,
// line based conversation with the generation backend.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/dotdir"
	"github.com/papercomputeco/gongwen/pkg/generate"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("你> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("公文> ")
)

type chatCommander struct {
	convID   string
	resume bool

	app    *app.App
	runner *generate.Runner
	conv   *conversation.Conversation
	out    io.Writer
}

const chatLongDesc string = `Start an interactive conversation with the generation backend.

Each line you enter is sent as a generation request in the same
conversation, so follow-up lines revise the previous document. Replies
stream as they arrive. Ctrl+C cancels the reply being generated.

Commands:
  /new       Start a new conversation
  /preview   Render the latest document as markdown
  /exit      Quit (Ctrl+D also quits)

Use --resume to continue the conversation last used by "gongwen chat"
or "gongwen generate", or --conv to continue a specific one.

Examples:
  gongwen chat
  gongwen chat -t 请示
  gongwen chat --resume`

const chatShortDesc string = "Interactive document conversation"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.Load(cmd, app.Keys(app.GenerationKeys, config.FlagMarkdown)...)
			if err != nil {
				return err
			}
			cmder.app = a
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer cmder.app.Close()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	app.AddFlags(cmd, app.GenerationKeys)
	app.AddMarkdownFlag(cmd)
	cmd.Flags().StringVar(&cmder.convID, "conv", "", "Continue this backend conversation")
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Continue the active conversation")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader) error {
	var err error
	c.runner, err = c.app.Runner()
	if err != nil {
		return err
	}

	convID := c.convID
	if convID == "" && c.resume {
		active, err := dotdir.NewManager().LoadActive(c.app.ConfigDir)
		if err != nil {
			return fmt.Errorf("loading active conversation: %w", err)
		}
		if active != nil {
			convID = active.ConvID
		}
	}

	fmt.Fprintln(c.out)
	c.open(ctx, convID)

	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Doc type:"),
		cliui.NameStyle.Render(c.app.Config.Generate.DocType),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your request and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			c.conv.Close()
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			c.conv.Close()
			if err := dotdir.NewManager().ClearActive(c.app.ConfigDir); err != nil {
				c.app.Logger.Warn("could not clear active conversation", "error", err)
			}
			fmt.Fprintln(c.out)
			c.open(ctx, "")
			fmt.Fprintln(c.out)
			continue
		case "/preview":
			c.preview()
			continue
		}

		c.send(ctx, input)
	}

	c.conv.Close()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// open replaces the conversation view, loading convID's history from the
// backend when it can.
func (c *chatCommander) open(ctx context.Context, convID string) {
	var history []conversation.Message
	if convID != "" {
		history = c.loadHistory(ctx, convID)
		fmt.Fprintf(c.out, "  %s Resuming %s %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(convID),
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(history))),
		)
	} else {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	c.conv = conversation.New(
		conversation.WithLogger(c.app.Logger),
		conversation.WithHistory(convID, history),
	)
	c.conv.Subscribe(app.NewEcho(c.out).Listen)
}

func (c *chatCommander) loadHistory(ctx context.Context, convID string) []conversation.Message {
	cl, err := c.app.Client()
	if err != nil {
		c.app.Logger.Warn("could not create backend client", "error", err)
		return nil
	}

	detail, err := cl.GetConversation(ctx, convID)
	if err != nil {
		c.app.Logger.Warn("could not load conversation history", "conv_id", convID, "error", err)
		return nil
	}

	return detail.History()
}

func (c *chatCommander) send(ctx context.Context, input string) {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprint(c.out, assistantPrompt)
	outcome := c.runner.Run(runCtx, c.conv, input, generate.Options{})
	fmt.Fprintln(c.out)

	if outcome.Err != nil {
		fmt.Fprintf(c.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(outcome.Message.Content))
		return
	}

	if outcome.Message.DocxFile != "" {
		fmt.Fprintf(c.out, "\n  %s %s %s\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(outcome.Message.DocxFile),
			cliui.Elapsed(outcome.Duration),
		)
	}
	fmt.Fprintln(c.out)

	c.app.Remember(c.conv.ConvID(), c.app.Config.Generate.DocType, input)
}

func (c *chatCommander) preview() {
	content := c.conv.Preview()
	if content == "" {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Nothing generated yet."))
		return
	}

	if c.app.Config.UI.Markdown {
		content = cliui.Document(c.out, content)
	}
	fmt.Fprintf(c.out, "%s\n", content)
}
