// Package tuicmder provides the tui command, a three-pane terminal UI over
// the conversation reducer: conversations, transcript and document preview.
package tuicmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/gongwen/cmd/gongwen/app"
	"github.com/papercomputeco/gongwen/pkg/config"
	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/dotdir"
	"github.com/papercomputeco/gongwen/pkg/logger"
)

const logFile = "tui.log"

type tuiCommander struct {
	convID string
	resume bool
}

const tuiLongDesc string = `Open the terminal UI.

The window shows your backend conversations on the left, the transcript
in the middle and a preview of the latest document on the right. The
sidebar is hidden in windows narrower than 80 columns.

Keys:
  enter         send the request, or open the selected conversation
  alt+enter     insert a newline
  tab           switch between the input and the conversation list
  ctrl+n        start a new conversation
  ctrl+r        reload the conversation list
  alt+←/alt+→   resize the transcript and preview panes
  pgup/pgdn     scroll the transcript
  ctrl+c        cancel the running generation, or quit

With --debug, logs are written to tui.log in the .gongwen/ directory.

Examples:
  gongwen tui
  gongwen tui -t 请示
  gongwen tui --resume`

const tuiShortDesc string = "Open the terminal UI"

func NewTUICmd() *cobra.Command {
	cmder := &tuiCommander{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: tuiShortDesc,
		Long:  tuiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	app.AddFlags(cmd, app.GenerationKeys)
	app.AddMarkdownFlag(cmd)
	cmd.Flags().StringVar(&cmder.convID, "conv", "", "Open this backend conversation")
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Open the active conversation")

	return cmd
}

func (c *tuiCommander) run(cmd *cobra.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the terminal UI needs an interactive terminal; use \"gongwen chat\" instead")
	}

	a, err := app.Load(cmd, app.Keys(app.GenerationKeys, config.FlagMarkdown)...)
	if err != nil {
		return err
	}
	defer a.Close()

	// The program owns the terminal, so logs go to a file or nowhere.
	closeLog, err := redirectLogs(a)
	if err != nil {
		return err
	}
	defer closeLog()

	runner, err := a.Runner()
	if err != nil {
		return err
	}

	cl, err := a.Client()
	if err != nil {
		return err
	}

	convID := c.convID
	if convID == "" && c.resume {
		active, err := dotdir.NewManager().LoadActive(a.ConfigDir)
		if err != nil {
			return fmt.Errorf("loading active conversation: %w", err)
		}
		if active != nil {
			convID = active.ConvID
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var history []conversation.Message
	if convID != "" {
		detail, err := cl.GetConversation(ctx, convID)
		if err != nil {
			return fmt.Errorf("loading conversation %s: %w", convID, err)
		}
		history = detail.History()
	}

	conv := conversation.New(
		conversation.WithLogger(a.Logger),
		conversation.WithHistory(convID, history),
	)

	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	model := newTUIModel(ctx, modelConfig{
		Runner:   runner,
		Backend:  cl,
		Conv:     conv,
		DocType:  a.Config.Generate.DocType,
		Markdown: a.Config.UI.Markdown,
		Remember: func(convID, title string) {
			a.Remember(convID, a.Config.Generate.DocType, title)
		},
	})

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	conv.Subscribe(func(s conversation.Snapshot) {
		program.Send(snapshotMsg(s))
	})

	_, err = program.Run()

	// Stop any in-flight run and detach the view so nothing reaches the
	// finished program.
	cancel()
	conv.Close()

	return err
}

func redirectLogs(a *app.App) (func(), error) {
	if !a.Debug {
		a.Logger = logger.Nop()
		return func() {}, nil
	}

	dir, err := dotdir.NewManager().Ensure(a.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolving log dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	a.Logger = logger.New(logger.WithDebug(true), logger.WithWriter(f))
	return func() { f.Close() }, nil
}
