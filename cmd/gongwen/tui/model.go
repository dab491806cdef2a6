package tuicmder

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/gongwen/pkg/client"
	"github.com/papercomputeco/gongwen/pkg/cliui"
	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/generate"
)

// backend is the part of the collaborator client the TUI browses.
type backend interface {
	ListConversations(ctx context.Context) ([]client.ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (*client.ConversationDetail, error)
}

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Messages delivered to the program. Conversation mutations only ever run
// inside commands, off the update loop, because every mutation notifies the
// subscription that sends a snapshotMsg back into the program.
type (
	snapshotMsg conversation.Snapshot

	runDoneMsg struct {
		text    string
		outcome generate.Outcome
	}

	conversationsMsg struct {
		convs []client.ConversationSummary
		err   error
	}

	openedMsg struct {
		convID string
		err    error
	}
)

type tuiModel struct {
	ctx      context.Context
	runner   *generate.Runner
	backend  backend
	conv     *conversation.Conversation
	docType  string
	markdown bool
	remember func(convID, title string)

	snap   conversation.Snapshot
	convs  []client.ConversationSummary
	cursor int

	running bool
	cancel  context.CancelFunc

	status    string
	statusErr bool

	focus  focusArea
	ratio  float64
	width  int
	height int

	chat    viewport.Model
	preview viewport.Model
	input   textarea.Model
	keys    keyMap
	help    help.Model
}

type modelConfig struct {
	Runner   *generate.Runner
	Backend  backend
	Conv     *conversation.Conversation
	DocType  string
	Markdown bool
	Remember func(convID, title string)
}

func newTUIModel(ctx context.Context, c modelConfig) tuiModel {
	input := textarea.New()
	input.Placeholder = "输入公文需求，Enter 发送"
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	input.Focus()

	remember := c.Remember
	if remember == nil {
		remember = func(string, string) {}
	}

	m := tuiModel{
		ctx:      ctx,
		runner:   c.Runner,
		backend:  c.Backend,
		conv:     c.Conv,
		docType:  c.DocType,
		markdown: c.Markdown,
		remember: remember,
		snap:     c.Conv.Snapshot(),
		ratio:    defaultRatio,
		width:    sidebarMinWindow,
		height:   24,
		chat:     viewport.New(0, 0),
		preview:  viewport.New(0, 0),
		input:    input,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
	return m.resize()
}

func (m tuiModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(textarea.Blink, loadConversationsCmd(m.ctx, m.backend))
}

func (m tuiModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.resize(), nil

	case snapshotMsg:
		m.snap = conversation.Snapshot(msg)
		return m.refresh(), nil

	case runDoneMsg:
		return m.finishRun(msg)

	case conversationsMsg:
		if msg.err != nil {
			return m.setError("加载会话失败: " + msg.err.Error()), nil
		}
		m.convs = msg.convs
		m.cursor = clampInt(m.cursor, 0, max(len(m.convs)-1, 0))
		return m, nil

	case openedMsg:
		if msg.err != nil {
			return m.setError("打开会话失败: " + msg.err.Error()), nil
		}
		if msg.convID == "" {
			m.status, m.statusErr = "新会话", false
		} else {
			m.status, m.statusErr = "已打开会话 "+msg.convID, false
		}
		m.focus = focusInput
		return m, m.input.Focus()

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.running {
			m.cancel()
			m.status, m.statusErr = "正在取消…", false
			return m, nil
		}
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput && m.sidebarVisible() {
			m.focus = focusSidebar
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Narrower):
		m.ratio = clampRatio(m.ratio - ratioStep)
		return m.resize(), nil

	case key.Matches(msg, m.keys.Wider):
		m.ratio = clampRatio(m.ratio + ratioStep)
		return m.resize(), nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.chat.SetYOffset(m.chat.YOffset - max(m.chat.Height/2, 1))
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.chat.SetYOffset(m.chat.YOffset + max(m.chat.Height/2, 1))
		return m, nil

	case key.Matches(msg, m.keys.New):
		if m.running {
			return m.setError("生成中，无法新建会话"), nil
		}
		return m, newConversationCmd(m.conv)

	case key.Matches(msg, m.keys.Refresh):
		return m, loadConversationsCmd(m.ctx, m.backend)
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Send) {
		return m.send()
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) handleSidebarKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clampInt(m.cursor-1, 0, max(len(m.convs)-1, 0))
	case key.Matches(msg, m.keys.Down):
		m.cursor = clampInt(m.cursor+1, 0, max(len(m.convs)-1, 0))
	case key.Matches(msg, m.keys.Send):
		if len(m.convs) == 0 {
			return m, nil
		}
		if m.running {
			return m.setError("生成中，无法切换会话"), nil
		}
		id := m.convs[m.cursor].ID
		m.status, m.statusErr = "正在加载会话…", false
		return m, openConversationCmd(m.ctx, m.backend, m.conv, id)
	}
	return m, nil
}

func (m tuiModel) send() (bubbletea.Model, bubbletea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.running {
		return m.setError("上一条仍在生成"), nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.running = true
	m.cancel = cancel
	m.status, m.statusErr = "生成中…", false
	m.input.Reset()

	runner, conv := m.runner, m.conv
	return m, func() bubbletea.Msg {
		defer cancel()
		return runDoneMsg{text: text, outcome: runner.Run(ctx, conv, text, generate.Options{})}
	}
}

func (m tuiModel) finishRun(msg runDoneMsg) (bubbletea.Model, bubbletea.Cmd) {
	m.running = false
	m.cancel = nil

	out := msg.outcome
	switch {
	case out.Canceled():
		return m.setError("已取消"), nil
	case errors.Is(out.Err, conversation.ErrSendInFlight):
		return m.setError("上一条仍在生成"), nil
	case out.Err != nil:
		return m.setError(strings.TrimPrefix(out.Message.Content, conversation.ErrorMarker)), nil
	}

	m.status, m.statusErr = "生成完成 ("+cliui.FormatDuration(out.Duration)+")", false
	if out.Message.DocxFile != "" {
		m.status += "  📄 " + out.Message.DocxFile
	}

	if convID := m.conv.ConvID(); convID != "" {
		m.remember(convID, msg.text)
	}
	return m, loadConversationsCmd(m.ctx, m.backend)
}

func (m tuiModel) setError(status string) tuiModel {
	m.status, m.statusErr = status, true
	return m
}

func (m tuiModel) sidebarVisible() bool {
	return computeLayout(m.width, m.height, m.ratio).Sidebar > 0
}

// resize applies the current layout to the panes and re-renders their
// content at the new widths.
func (m tuiModel) resize() tuiModel {
	l := computeLayout(m.width, m.height, m.ratio)

	m.chat.Width = inner(l.Chat)
	m.chat.Height = inner(l.Body)
	m.preview.Width = inner(l.Preview)
	m.preview.Height = inner(l.Body)
	m.input.SetWidth(inner(l.Input))
	m.help.Width = m.width

	if l.Sidebar == 0 && m.focus == focusSidebar {
		m.focus = focusInput
		m.input.Focus()
	}

	return m.refresh()
}

// refresh re-renders the transcript and preview from the last snapshot.
func (m tuiModel) refresh() tuiModel {
	atBottom := m.chat.AtBottom()
	m.chat.SetContent(renderTranscript(m.snap, m.chat.Width))
	if atBottom || m.snap.State == conversation.StateSending {
		m.chat.GotoBottom()
	}

	m.preview.SetContent(renderPreview(m.snap, m.preview.Width, m.markdown))
	return m
}

func loadConversationsCmd(ctx context.Context, b backend) bubbletea.Cmd {
	return func() bubbletea.Msg {
		convs, err := b.ListConversations(ctx)
		return conversationsMsg{convs: convs, err: err}
	}
}

func openConversationCmd(ctx context.Context, b backend, conv *conversation.Conversation, id string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		detail, err := b.GetConversation(ctx, id)
		if err != nil {
			return openedMsg{convID: id, err: err}
		}
		return openedMsg{convID: id, err: conv.Reset(id, detail.History())}
	}
}

func newConversationCmd(conv *conversation.Conversation) bubbletea.Cmd {
	return func() bubbletea.Msg {
		return openedMsg{err: conv.Reset("", nil)}
	}
}
