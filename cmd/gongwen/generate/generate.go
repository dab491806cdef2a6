// Package generatecmder provides the generate command, a one-shot streaming
// generation printed as it arrives.
package generatecmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/dotdir"
	"github.com/papercomputeco/gongwen/pkg/generate"
)

type generateCommander struct {
	dump   string
	convID string
	resume bool
}

const generateLongDesc string = `Generate a document and stream it to the terminal.

The request text is taken from the arguments, or from stdin when no
arguments are given and stdin is not a terminal. Text is printed as the
backend streams it; once the stream ends the finished document is
rendered as markdown (when writing to a terminal) and archived locally.

Pass --conv to continue a backend conversation, or --resume to continue
the conversation last used by "gongwen chat" or "gongwen generate".

Examples:
  gongwen generate "下周一召开安全生产工作会议"
  gongwen generate -t 请示 "申请增加办公经费"
  gongwen generate --resume "把会议时间改为周二"
  echo "年度总结" | gongwen generate -t 报告
  gongwen generate --dump stream.txt "测试"`

const generateShortDesc string = "Generate a document"

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate [text...]",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := requestText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return cmder.run(cmd, text)
		},
	}

	app.AddFlags(cmd, app.GenerationKeys)
	app.AddMarkdownFlag(cmd)
	cmd.Flags().StringVar(&cmder.dump, "dump", "", "Write the raw event stream to this file")
	cmd.Flags().StringVar(&cmder.convID, "conv", "", "Continue this backend conversation")
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Continue the active conversation")

	return cmd
}

// requestText joins args, falling back to piped stdin.
func requestText(args []string, stdin io.Reader) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && len(args) == 0 && stdin != nil && (stdin != os.Stdin || app.Stdin()) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return "", errors.New("request text is required")
	}
	return text, nil
}

func (c *generateCommander) run(cmd *cobra.Command, text string) error {
	a, err := app.Load(cmd, app.Keys(app.GenerationKeys, config.FlagMarkdown)...)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.Runner()
	if err != nil {
		return err
	}

	convID := c.convID
	if convID == "" && c.resume {
		active, err := dotdir.NewManager().LoadActive(a.ConfigDir)
		if err != nil {
			return err
		}
		if active != nil {
			convID = active.ConvID
		}
	}

	opts := generate.Options{}
	if c.dump != "" {
		f, err := os.Create(c.dump)
		if err != nil {
			return fmt.Errorf("creating dump file: %w", err)
		}
		defer f.Close()
		opts.RawTee = f
	}

	out := cmd.OutOrStdout()
	conv := conversation.New(
		conversation.WithLogger(a.Logger),
		conversation.WithHistory(convID, nil),
	)
	echo := app.NewEcho(out)
	conv.Subscribe(echo.Listen)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	outcome := runner.Run(ctx, conv, text, opts)
	conv.Close()
	if echo.Wrote() {
		fmt.Fprintln(out)
	}

	if outcome.Err != nil {
		fmt.Fprintf(out, "\n  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(outcome.Message.Content))
		return outcome.Err
	}

	if a.Config.UI.Markdown && cliui.IsTerminal(out) {
		fmt.Fprintf(out, "\n  %s\n%s", cliui.HeaderStyle.Render("预览"), cliui.Document(out, outcome.Message.Content))
	}

	app.Report(out, outcome)
	a.Remember(conv.ConvID(), a.Config.Generate.DocType, text)

	return nil
}
