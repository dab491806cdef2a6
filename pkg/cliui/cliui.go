// Package cliui holds the styles and small terminal helpers shared by the
// gongwen commands.
package cliui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultWidth is used when the output has no terminal size.
const DefaultWidth = 80

const keyWidth = 14

var (
	green = lipgloss.Color("82")
	red   = lipgloss.Color("196")

	SuccessMark = lipgloss.NewStyle().Foreground(green).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(red).Render("✗")

	StepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle   = lipgloss.NewStyle().Bold(true)
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(red)
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// UserStyle and BotStyle label the two sides of a transcript.
	UserStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	BotStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

	spinnerStyle = lipgloss.NewStyle().Foreground(green)
)

// Same frames as spinner.Dot in the TUI.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const spinnerInterval = 80 * time.Millisecond

// Step runs fn and ends with one line carrying its mark and elapsed time.
// A spinner is drawn while fn runs when w is a terminal.
func Step(w io.Writer, msg string, fn func() error) error {
	start := time.Now()

	var err error
	if IsTerminal(w) {
		err = spin(w, msg, fn)
		fmt.Fprint(w, "\r")
	} else {
		err = fn()
	}

	fmt.Fprintf(w, "  %s %s %s\n", Mark(err), msg, Elapsed(time.Since(start)))
	return err
}

func spin(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	err := fn()
	close(done)
	<-stopped
	return err
}

// Mark is SuccessMark for a nil error and FailMark otherwise.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration prints sub-second durations in milliseconds and longer
// ones in tenths of a second ("12ms", "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Elapsed is the dimmed "(3.2s)" suffix printed after a finished step.
func Elapsed(d time.Duration) string {
	return StepStyle.Render("(" + FormatDuration(d) + ")")
}

// KeyValue renders an indented "key: value" line with the values aligned.
func KeyValue(key, value string) string {
	return "  " + KeyStyle.Width(keyWidth).Render(key+":") + " " + ValueStyle.Render(value)
}

func fileOf(w io.Writer) (*os.File, bool) {
	f, ok := w.(*os.File)
	return f, ok
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := fileOf(w)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth is the column count of w, or fallback when it has none.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := fileOf(w)
	if !ok {
		return fallback
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return fallback
}

// ColorProfile is the colour profile for w. Anything that is not a
// terminal gets plain ASCII.
func ColorProfile(w io.Writer) termenv.Profile {
	if !IsTerminal(w) {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

// RenderMarkdown renders a generated document with glamour, wrapped at
// width. On error the content is returned unchanged alongside it.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return content, err
	}
	out, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return out, nil
}

// Document prepares generated content for w: rendered markdown on a
// terminal, the raw text anywhere else or when rendering fails.
func Document(w io.Writer, content string) string {
	if !IsTerminal(w) {
		return content
	}
	out, _ := RenderMarkdown(content, TerminalWidth(w, DefaultWidth))
	return out
}
