package tuicmder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/utils"
)

var (
	tuiTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	tuiMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tuiSectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	tuiHighlight     = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	tuiOKStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	tuiFailStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	tuiPaneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("237"))
	tuiFocusedBorder = lipgloss.Color("214")
)

func (m tuiModel) View() string {
	l := computeLayout(m.width, m.height, m.ratio)

	panes := []string{}
	if l.Sidebar > 0 {
		panes = append(panes, m.pane(m.renderSidebar(inner(l.Sidebar), inner(l.Body)), l.Sidebar, l.Body, m.focus == focusSidebar))
	}
	panes = append(panes,
		m.pane(m.chat.View(), l.Chat, l.Body, false),
		m.pane(m.preview.View(), l.Preview, l.Body, false),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	input := m.pane(m.input.View(), l.Input, inputHeight+borderSize, m.focus == focusInput)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, input, m.renderFooter())
}

func (m tuiModel) pane(content string, width, height int, focused bool) string {
	style := tuiPaneStyle.Width(inner(width)).Height(inner(height)).MaxHeight(height)
	if focused {
		style = style.BorderForeground(tuiFocusedBorder)
	}
	return style.Render(content)
}

func (m tuiModel) renderHeader() string {
	conv := "新会话"
	if m.snap.ConvID != "" {
		conv = "会话 " + m.snap.ConvID
	}

	state := tuiOKStyle.Render("●")
	if m.running {
		state = tuiTitleStyle.Render("◌")
	}

	return fmt.Sprintf(" %s %s  %s  %s",
		state,
		tuiTitleStyle.Render("公文写作"),
		tuiSectionStyle.Render(m.docType),
		tuiMutedStyle.Render(conv),
	)
}

func (m tuiModel) renderFooter() string {
	if m.status == "" {
		return " " + m.help.View(m.keys)
	}
	if m.statusErr {
		return " " + tuiFailStyle.Render(m.status)
	}
	return " " + tuiOKStyle.Render(m.status)
}

func (m tuiModel) renderSidebar(width, height int) string {
	lines := []string{tuiSectionStyle.Render("会话"), ""}
	if len(m.convs) == 0 {
		lines = append(lines, tuiMutedStyle.Render("暂无会话"))
	}

	// Keep the cursor in view.
	visible := max(height-len(lines), 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}

	for i := start; i < len(m.convs) && i < start+visible; i++ {
		c := m.convs[i]
		marker := " "
		if c.ID == m.snap.ConvID {
			marker = "●"
		}
		line := marker + " " + utils.TruncateWidth(c.Title, max(width-2, 1))
		if i == m.cursor && m.focus == focusSidebar {
			line = tuiHighlight.Render(line)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// renderTranscript renders every message wrapped to width.
func renderTranscript(snap conversation.Snapshot, width int) string {
	if len(snap.Messages) == 0 {
		return tuiMutedStyle.Render("输入需求开始生成公文。")
	}

	wrap := lipgloss.NewStyle().Width(max(width, 1))
	var b strings.Builder
	for i, msg := range snap.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}

		switch msg.Role {
		case conversation.RoleUser:
			b.WriteString(cliui.UserStyle.Render("你"))
			b.WriteString("\n")
			b.WriteString(wrap.Render(msg.Content))
		default:
			b.WriteString(cliui.BotStyle.Render("公文"))
			b.WriteString("\n")
			switch {
			case msg.Failed:
				b.WriteString(wrap.Inherit(tuiFailStyle).Render(msg.Content))
			case msg.Content == "" && snap.State == conversation.StateSending && i == len(snap.Messages)-1:
				b.WriteString(tuiMutedStyle.Render("…"))
			default:
				b.WriteString(wrap.Render(msg.Content))
			}
			if msg.DocxFile != "" {
				b.WriteString("\n")
				b.WriteString(tuiOKStyle.Render("📄 " + msg.DocxFile))
			}
		}
	}
	return b.String()
}

// renderPreview renders the latest document. Markdown is only rendered once
// the stream has finished.
func renderPreview(snap conversation.Snapshot, width int, markdown bool) string {
	if snap.Preview == "" {
		return tuiMutedStyle.Render("预览")
	}

	if markdown && snap.State == conversation.StateIdle {
		if rendered, err := renderMarkdown(snap.Preview, max(width, 20)); err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}
	return lipgloss.NewStyle().Width(max(width, 1)).Render(snap.Preview)
}

// renderMarkdown uses a fixed dark style. Auto detection queries the
// terminal, which the running program owns.
func renderMarkdown(content string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.DarkStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(content)
}
