package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxBuffer     = 1024 * 1024
)

// Reader reads SSE lines from a source io.Reader and optionally writes every
// raw line verbatim to a tee destination.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────────┐
// │  Reader.Next()   │──▶│ tee io.Writer (optional)  │
// └──────────────────┘   └───────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
//
// bufio.Scanner only hands out complete lines, so a line (or a multi-byte
// UTF-8 character) split across two reads of the source is reassembled before
// it is parsed. A Reader is single use: once the source is exhausted or fails,
// Next keeps returning the same terminal result.
type Reader struct {
	scanner *bufio.Scanner
	tee     io.Writer

	eventType string
	lastID    string
	line      int

	done bool
	err  error
}

// Option configures a Reader.
type Option func(*Reader)

// WithTee writes every raw line read from the source, newline included, to w.
func WithTee(w io.Writer) Option {
	return func(r *Reader) {
		r.tee = w
	}
}

// NewReader returns a Reader that parses SSE lines from src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	r := &Reader{
		scanner:   scanner,
		eventType: DefaultEventType,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Next returns the next data line as an Event. It blocks until a complete
// data line is available. Next returns nil, nil when the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	if r.done {
		return nil, r.err
	}

	for r.scanner.Scan() {
		raw := r.scanner.Text()
		r.line++

		if r.tee != nil {
			// bufio.Scanner strips the newline from the Scan() so we reinsert it here.
			if _, err := io.WriteString(r.tee, raw+"\n"); err != nil {
				return nil, r.finish(fmt.Errorf("writing tee: %w", err))
			}
		}

		raw = strings.TrimSuffix(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}

		// Lines starting with ':' are comments (keep-alives).
		if strings.HasPrefix(raw, ":") {
			continue
		}

		if ev := r.parseLine(raw); ev != nil {
			return ev, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, r.finish(fmt.Errorf("reading stream: %w", err))
	}

	return nil, r.finish(nil)
}

// EventType returns the event name currently in effect.
func (r *Reader) EventType() string {
	return r.eventType
}

// parseLine processes a single non-empty, non-comment SSE line. It returns an
// Event for data lines and nil for every other field.
//
// A line has the form "field:value" where the first space after the colon is
// optional and stripped if present.
func (r *Reader) parseLine(line string) *Event {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		value = strings.TrimPrefix(after, " ")
	} else {
		// Line with no colon: the entire line is the field name with
		// an empty value.
		field = line
	}

	switch field {
	case "data":
		return &Event{
			Type: r.eventType,
			Data: value,
			ID:   r.lastID,
			Line: r.line,
		}
	case "event":
		value = strings.TrimSpace(value)
		if value == "" {
			value = DefaultEventType
		}
		r.eventType = value
	case "id":
		r.lastID = value
	default:
		// "retry" and unknown fields are ignored.
	}

	return nil
}

func (r *Reader) finish(err error) error {
	r.done = true
	r.err = err
	return err
}
