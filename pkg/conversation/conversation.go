package conversation

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/gongwen/pkg/logger"
	"github.com/papercomputeco/gongwen/pkg/protocol"
)

// IDSource produces provisional message ids. Ids must be unique within the
// process.
type IDSource func() int64

var lastID atomic.Int64

// NextID is the default IDSource: a process-wide counter seeded from the
// wall clock so ids also sort by creation time.
func NextID() int64 {
	for {
		prev := lastID.Load()
		next := time.Now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if lastID.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// Snapshot is a copy of the view state handed to listeners.
type Snapshot struct {
	Messages []Message
	Preview  string
	State    State
	ConvID   string
}

// Listener is notified after every state change.
type Listener func(Snapshot)

// Conversation is the state reducer of one conversation view. It owns the
// message list and the single active Session; at most one generation may be
// in flight at a time.
//
// Mutations are serialised by an internal mutex so a view may be closed from
// another goroutine while a stream is being applied. After Close every
// mutation is ignored.
type Conversation struct {
	mu sync.Mutex

	messages []Message
	preview  string
	session  *Session
	convID   string
	closed   bool

	ids       IDSource
	listeners []Listener
	logger    *slog.Logger
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithIDSource overrides the provisional id generator.
func WithIDSource(ids IDSource) Option {
	return func(c *Conversation) {
		c.ids = ids
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conversation) {
		c.logger = l
	}
}

// WithHistory seeds the view with an existing conversation.
func WithHistory(convID string, messages []Message) Option {
	return func(c *Conversation) {
		c.convID = convID
		c.messages = slices.Clone(messages)
		c.preview = lastAssistantContent(messages)
	}
}

// New returns an idle Conversation.
func New(opts ...Option) *Conversation {
	c := &Conversation{
		ids:    NextID,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to be called after every state change. Listeners
// run on the goroutine that made the change, outside the internal lock.
func (c *Conversation) Subscribe(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// BeginSend appends the user's message and an empty assistant placeholder
// and starts a session for the placeholder. It fails with ErrSendInFlight,
// leaving the view untouched, if a session is already active.
func (c *Conversation) BeginSend(userText string) (int64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	if c.session != nil {
		c.mu.Unlock()
		return 0, ErrSendInFlight
	}

	c.messages = append(c.messages, Message{
		ID:      c.ids(),
		Role:    RoleUser,
		Content: userText,
	})

	placeholderID := c.ids()
	c.messages = append(c.messages, Message{
		ID:   placeholderID,
		Role: RoleAssistant,
	})

	c.session = &Session{PlaceholderID: placeholderID}
	c.preview = ""

	c.logger.Debug("generation started", "placeholder_id", placeholderID)
	c.unlockAndNotify()

	return placeholderID, nil
}

// ApplyEvent folds one protocol event into the view. Events that arrive
// while no session is active are ignored.
func (c *Conversation) ApplyEvent(ev protocol.Event) {
	c.mu.Lock()
	if c.closed || c.session == nil {
		c.mu.Unlock()
		return
	}

	switch e := ev.(type) {
	case *protocol.MessageEvent:
		if e.Blank() {
			c.mu.Unlock()
			return
		}
		c.session.Accumulated += e.Chunk
		c.setPlaceholder(func(m *Message) { m.Content = c.session.Accumulated })
		c.preview = c.session.Accumulated

	case *protocol.MetadataEvent:
		c.session.Metadata.Merge(e.Metadata)
		if e.Metadata.ConvID != "" {
			c.convID = e.Metadata.ConvID
		}

	case *protocol.ErrorEvent:
		c.logger.Warn("generation failed", "detail", e.Detail)
		c.failSession(e.Detail)

	default:
		c.mu.Unlock()
		return
	}

	c.unlockAndNotify()
}

// CompleteSend finalises the session after the stream ended normally. A
// stream that produced no text is a failure: the placeholder is replaced by
// an error notice and ErrEmptyResult is returned.
func (c *Conversation) CompleteSend() (Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, ErrClosed
	}
	if c.session == nil {
		c.mu.Unlock()
		return Message{}, ErrNoSession
	}

	if c.session.Accumulated == "" {
		final := c.failSession(EmptyResultDetail)
		c.unlockAndNotify()
		return final, ErrEmptyResult
	}

	filename := c.session.Metadata.Filename
	final := c.setPlaceholder(func(m *Message) {
		m.Content = c.session.Accumulated
		m.DocxFile = filename
	})
	c.preview = final.Content
	c.session = nil

	c.logger.Debug("generation completed",
		"placeholder_id", final.ID,
		"docx_file", filename,
		"length", len(final.Content),
	)
	c.unlockAndNotify()

	return final, nil
}

// AbortSend ends the session after a transport failure, replacing the
// placeholder with an error notice built from reason.
func (c *Conversation) AbortSend(reason string) (Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, ErrClosed
	}
	if c.session == nil {
		c.mu.Unlock()
		return Message{}, ErrNoSession
	}

	if strings.TrimSpace(reason) == "" {
		reason = protocol.DefaultErrorDetail
	}
	c.logger.Warn("generation aborted", "reason", reason)
	final := c.failSession(reason)
	c.unlockAndNotify()

	return final, nil
}

// Reset replaces the view with another conversation's history. It fails with
// ErrSendInFlight while a generation is running.
func (c *Conversation) Reset(convID string, messages []Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.session != nil {
		c.mu.Unlock()
		return ErrSendInFlight
	}

	c.convID = convID
	c.messages = slices.Clone(messages)
	c.preview = lastAssistantContent(messages)
	c.unlockAndNotify()

	return nil
}

// Close tears the view down. Any active session is discarded and later
// mutations are ignored. Close is safe to call from any goroutine.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.logger.Debug("discarding in-flight generation", "placeholder_id", c.session.PlaceholderID)
	}
	c.session = nil
	c.closed = true
	c.listeners = nil
}

// Closed reports whether Close has been called.
func (c *Conversation) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// State returns the current lifecycle state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// Messages returns a copy of the message list.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Preview returns the current preview text.
func (c *Conversation) Preview() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// ConvID returns the durable conversation id learned from the backend, or ""
// for a conversation the backend has not seen yet.
func (c *Conversation) ConvID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.convID
}

// Session returns a copy of the active session.
func (c *Conversation) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Snapshot returns a copy of the whole view state.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Conversation) state() State {
	if c.session != nil {
		return StateSending
	}
	return StateIdle
}

func (c *Conversation) snapshot() Snapshot {
	return Snapshot{
		Messages: slices.Clone(c.messages),
		Preview:  c.preview,
		State:    c.state(),
		ConvID:   c.convID,
	}
}

// failSession replaces the placeholder content with an error notice and
// clears the session. The preview keeps the last accumulated text since
// partial output may still be useful. Callers hold c.mu.
func (c *Conversation) failSession(detail string) Message {
	final := c.setPlaceholder(func(m *Message) {
		m.Content = errorContent(detail)
		m.DocxFile = ""
		m.Failed = true
	})
	c.session = nil
	return final
}

// setPlaceholder applies fn to the session's placeholder message and returns
// the updated copy. Callers hold c.mu with an active session.
func (c *Conversation) setPlaceholder(fn func(*Message)) Message {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == c.session.PlaceholderID {
			fn(&c.messages[i])
			return c.messages[i]
		}
	}
	return Message{}
}

// unlockAndNotify releases c.mu and then calls the listeners with a snapshot
// taken while the lock was held.
func (c *Conversation) unlockAndNotify() {
	if len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}

	snap := c.snapshot()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func lastAssistantContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant && !messages[i].Failed {
			return messages[i].Content
		}
	}
	return ""
}
