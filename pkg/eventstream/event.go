// Package eventstream defines the transport-neutral events emitted after a
// generation finishes and the publishers that ship them.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeGenerationCompleted is emitted after a generation produced a document.
	EventTypeGenerationCompleted = "gongwen.generation.completed"

	// EventTypeGenerationFailed is emitted after a generation ended in a failure bubble.
	EventTypeGenerationFailed = "gongwen.generation.failed"
)

// GenerationEvent is the payload published for a finished generation.
type GenerationEvent struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	EventID       string           `json:"event_id"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Source        EventSource      `json:"source"`
	Request       GenerationMeta   `json:"request"`
	Result        GenerationResult `json:"result"`
}

// EventSource identifies the client that ran the generation.
type EventSource struct {
	Client  string `json:"client"`
	Version string `json:"version,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// GenerationMeta captures what was asked and how long the stream took.
type GenerationMeta struct {
	ConvID      string    `json:"conv_id,omitempty"`
	DocType     string    `json:"doc_type"`
	TemplateID  string    `json:"template_id,omitempty"`
	Prompt      string    `json:"prompt"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// GenerationResult is the folded outcome of the stream.
type GenerationResult struct {
	MessageID int64  `json:"message_id"`
	DocID     string `json:"doc_id,omitempty"`
	DocxFile  string `json:"docx_file,omitempty"`
	Chars     int    `json:"chars"`
	Failed    bool   `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// NewGenerationEvent stamps a v1 event with a fresh ID and emission time.
// The event type follows result.Failed.
func NewGenerationEvent(source EventSource, req GenerationMeta, result GenerationResult) *GenerationEvent {
	eventType := EventTypeGenerationCompleted
	if result.Failed {
		eventType = EventTypeGenerationFailed
	}

	return &GenerationEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Request:       req,
		Result:        result,
	}
}

// Key returns the partitioning key for the event. Events of one
// conversation share a key so they stay ordered.
func (e *GenerationEvent) Key() string {
	if e.Request.ConvID != "" {
		return e.Request.ConvID
	}
	return e.EventID
}
