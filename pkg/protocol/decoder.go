package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/gongwen/pkg/logger"
	"github.com/papercomputeco/gongwen/pkg/sse"
	"github.com/papercomputeco/gongwen/pkg/utils"
)

// Decoder turns the lines of an SSE stream into protocol events.
//
// Every data line is decoded on its own. A line that is blank or is not valid
// JSON is skipped with a warning and decoding continues with the next line; a
// single bad fragment never aborts the stream. An error event is terminal:
// once it has been returned the decoder reports end of stream without reading
// further. Like the underlying sse.Reader, a Decoder serves one response only.
type Decoder struct {
	reader *sse.Reader
	logger *slog.Logger

	skipped  int
	terminal bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*decoderConfig)

type decoderConfig struct {
	logger  *slog.Logger
	sseOpts []sse.Option
}

// WithLogger sets the logger that receives skipped-line warnings.
func WithLogger(l *slog.Logger) DecoderOption {
	return func(c *decoderConfig) {
		c.logger = l
	}
}

// WithRawTee writes the undecoded stream to w as it is read.
func WithRawTee(w io.Writer) DecoderOption {
	return func(c *decoderConfig) {
		c.sseOpts = append(c.sseOpts, sse.WithTee(w))
	}
}

// NewDecoder returns a Decoder reading the SSE stream from src.
func NewDecoder(src io.Reader, opts ...DecoderOption) *Decoder {
	c := &decoderConfig{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}

	return &Decoder{
		reader: sse.NewReader(src, c.sseOpts...),
		logger: c.logger,
	}
}

// Next returns the next decoded event. It returns nil, nil at end of stream
// and after an ErrorEvent has been returned. A non-nil error means the
// underlying stream failed.
func (d *Decoder) Next() (Event, error) {
	if d.terminal {
		return nil, nil
	}

	for {
		line, err := d.reader.Next()
		if err != nil {
			return nil, err
		}
		if line == nil {
			return nil, nil
		}

		ev, ok := d.decode(line)
		if !ok {
			continue
		}

		if _, isErr := ev.(*ErrorEvent); isErr {
			d.terminal = true
		}

		return ev, nil
	}
}

// Skipped returns how many data lines were dropped as malformed so far.
func (d *Decoder) Skipped() int {
	return d.skipped
}

func (d *Decoder) decode(line *sse.Event) (Event, bool) {
	payload := strings.TrimSpace(line.Data)

	switch line.Type {
	case EventMessage, EventMetadata, EventError:
	default:
		d.logger.Debug("ignoring unrecognised event",
			"event", line.Type,
			"line", line.Line,
		)
		return nil, false
	}

	if payload == "" {
		d.skip(line, "empty payload", nil)
		return nil, false
	}

	switch line.Type {
	case EventMessage:
		ev := &MessageEvent{}
		if err := json.Unmarshal([]byte(payload), ev); err != nil {
			d.skip(line, "invalid message payload", err)
			return nil, false
		}
		return ev, true

	case EventMetadata:
		var md Metadata
		if err := json.Unmarshal([]byte(payload), &md); err != nil {
			d.skip(line, "invalid metadata payload", err)
			return nil, false
		}
		return &MetadataEvent{Metadata: md}, true

	default:
		ev := &ErrorEvent{}
		if err := json.Unmarshal([]byte(payload), ev); err != nil {
			d.skip(line, "invalid error payload", err)
			return nil, false
		}
		if strings.TrimSpace(ev.Detail) == "" {
			ev.Detail = DefaultErrorDetail
		}
		return ev, true
	}
}

func (d *Decoder) skip(line *sse.Event, reason string, err error) {
	d.skipped++

	attrs := []any{
		"event", line.Type,
		"line", line.Line,
		"data", utils.Truncate(line.Data, 120),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}

	d.logger.Warn(fmt.Sprintf("skipping stream fragment: %s", reason), attrs...)
}
