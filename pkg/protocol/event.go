// Package protocol decodes the generation stream of the document backend into
// typed events.
//
// The backend speaks SSE with three recognised event names:
//
//	event: message   data: {"chunk": "..."}
//	event: metadata  data: {"filename": "...", "conv_id": "...", "doc_id": "..."}
//	event: error     data: {"detail": "..."}
package protocol

import (
	"bytes"
	"encoding/json"
	"maps"
	"strconv"
	"strings"
)

// Recognised SSE event names.
const (
	EventMessage  = "message"
	EventMetadata = "metadata"
	EventError    = "error"
)

// DefaultErrorDetail is used when an error event carries no detail.
const DefaultErrorDetail = "生成失败，请稍后重试"

// Event is a decoded protocol event: one of *MessageEvent, *MetadataEvent or
// *ErrorEvent.
type Event interface {
	// Name returns the SSE event name the event was decoded from.
	Name() string

	isEvent()
}

// MessageEvent carries an incremental piece of generated text.
type MessageEvent struct {
	Chunk string `json:"chunk"`
}

func (*MessageEvent) Name() string { return EventMessage }
func (*MessageEvent) isEvent()     {}

// Blank reports whether the chunk is empty or whitespace only.
func (e *MessageEvent) Blank() bool {
	return strings.TrimSpace(e.Chunk) == ""
}

// MetadataEvent carries completion metadata for the generated document.
type MetadataEvent struct {
	Metadata Metadata
}

func (*MetadataEvent) Name() string { return EventMetadata }
func (*MetadataEvent) isEvent()     {}

// ErrorEvent is a terminal failure signalled by the backend.
type ErrorEvent struct {
	Detail string `json:"detail"`
}

func (*ErrorEvent) Name() string { return EventError }
func (*ErrorEvent) isEvent()     {}

// Metadata is the optional completion metadata of a generation. Every field
// is optional because the backend may omit any of them.
type Metadata struct {
	Filename string `json:"filename,omitempty"`
	ConvID   string `json:"conv_id,omitempty"`
	DocID    string `json:"doc_id,omitempty"`

	// Extra holds any keys the client does not model explicitly.
	Extra map[string]json.RawMessage `json:"-"`
}

// Merge overlays other onto m. Fields present in other win, so the last
// metadata event of a stream determines the final value of each key.
func (m *Metadata) Merge(other Metadata) {
	if other.Filename != "" {
		m.Filename = other.Filename
	}
	if other.ConvID != "" {
		m.ConvID = other.ConvID
	}
	if other.DocID != "" {
		m.DocID = other.DocID
	}
	if len(other.Extra) > 0 {
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage, len(other.Extra))
		}
		maps.Copy(m.Extra, other.Extra)
	}
}

// IsZero reports whether no metadata has been received.
func (m Metadata) IsZero() bool {
	return m.Filename == "" && m.ConvID == "" && m.DocID == "" && len(m.Extra) == 0
}

// UnmarshalJSON decodes a metadata object. conv_id and doc_id are accepted as
// JSON strings or numbers.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Metadata{}
	for key, value := range raw {
		switch key {
		case "filename":
			s, err := flexString(value)
			if err != nil {
				return err
			}
			out.Filename = s
		case "conv_id":
			s, err := flexString(value)
			if err != nil {
				return err
			}
			out.ConvID = s
		case "doc_id":
			s, err := flexString(value)
			if err != nil {
				return err
			}
			out.DocID = s
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[key] = value
		}
	}

	*m = out
	return nil
}

// flexString decodes a JSON string, number or null into a string.
func flexString(value json.RawMessage) (string, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || string(value) == "null" {
		return "", nil
	}

	if value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(value, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
