// Package sse provides a small SSE (Server-Sent Events) line reader for the
// generation stream returned by the document backend.
//
// Unlike a browser EventSource, the reader yields one Event per "data:" line
// rather than one per blank-line-delimited frame: the backend sends a JSON
// document per data line and each line must be decoded on its own. The
// "event:" name is sticky and applies to every data line that follows it
// until another "event:" line changes it.
//
// Field semantics follow the HTML living standard:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DefaultEventType is the event name used before any "event:" line is seen.
const DefaultEventType = "message"

// Event represents a single "data:" line and the event name in effect when it
// was read.
type Event struct {
	// Type is the current event name from the most recent "event:" field,
	// or DefaultEventType.
	Type string

	// Data is the raw value of the "data:" field with the single optional
	// leading space removed.
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string

	// Line is the 1-based physical line number the data line was read from.
	Line int
}
