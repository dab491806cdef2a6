// Package generate runs one streaming generation end to end: it opens the
// transport, decodes the event stream and folds every event into a
// conversation view, then archives and publishes the outcome.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/papercomputeco/gongwen/pkg/conversation"
	"github.com/papercomputeco/gongwen/pkg/eventstream"
	"github.com/papercomputeco/gongwen/pkg/logger"
	"github.com/papercomputeco/gongwen/pkg/protocol"
	"github.com/papercomputeco/gongwen/pkg/storage"
	"github.com/papercomputeco/gongwen/pkg/transport"
)

// DefaultDocType is used when neither the call nor the runner names one.
const DefaultDocType = "通知"

// Config configures a Runner.
type Config struct {
	// Transport opens generation streams. Required.
	Transport transport.Transport

	// Store archives finished generations. Optional.
	Store storage.Driver

	// Publisher receives a GenerationEvent per finished run. Optional.
	Publisher eventstream.Publisher

	// Source identifies this client in published events.
	Source eventstream.EventSource

	// DocType and TemplateID are the defaults for runs that leave them empty.
	DocType    string
	TemplateID string

	// SinkTimeout bounds archiving and publishing. Defaults to 5s.
	SinkTimeout time.Duration

	Logger *slog.Logger
}

// Options are the per-run settings.
type Options struct {
	DocType    string
	TemplateID string

	// RawTee receives every raw stream line, e.g. for --dump.
	RawTee io.Writer
}

// Outcome describes how a run ended. Failures are reported through Err; the
// conversation is always Idle once Run returns.
type Outcome struct {
	// Message is the final assistant message, or the error notice that
	// replaced it.
	Message conversation.Message

	// Metadata is everything the stream's metadata events carried.
	Metadata protocol.Metadata

	// Err is nil for a successful generation.
	Err error

	// Duration is the wall time from send to the end of the stream.
	Duration time.Duration

	// Skipped counts malformed stream fragments that were dropped.
	Skipped int
}

// Canceled reports whether the run ended because its context did.
func (o Outcome) Canceled() bool {
	return errors.Is(o.Err, ErrCanceled)
}

// Runner executes generations against a Transport.
type Runner struct {
	config Config
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(c Config) (*Runner, error) {
	if c.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if c.DocType == "" {
		c.DocType = DefaultDocType
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = 5 * time.Second
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Runner{config: c, logger: l}, nil
}

// Run sends text on conv and streams the reply into it.
//
// If conv already has a generation in flight, Run returns at once with
// conversation.ErrSendInFlight and conv is left untouched. Cancelling ctx
// abandons the stream: if conv has been closed nothing further is applied to
// it, otherwise the reply is replaced by a cancellation notice.
func (r *Runner) Run(ctx context.Context, conv *conversation.Conversation, text string, opts Options) Outcome {
	started := time.Now()

	placeholderID, err := conv.BeginSend(text)
	if err != nil {
		return Outcome{Err: err}
	}

	req := transport.GenerateRequest{
		DocType:    firstNonEmpty(opts.DocType, r.config.DocType),
		UserInput:  text,
		ConvID:     conv.ConvID(),
		TemplateID: firstNonEmpty(opts.TemplateID, r.config.TemplateID),
	}

	out := r.stream(ctx, conv, req, opts)
	out.Duration = time.Since(started)
	if out.Message.ID == 0 {
		out.Message = findMessage(conv, placeholderID)
	}

	r.logger.Info("generation finished",
		"conv_id", conv.ConvID(),
		"placeholder_id", placeholderID,
		"duration", out.Duration,
		"skipped", out.Skipped,
		"error", out.Err,
	)

	if !out.Canceled() && !errors.Is(out.Err, conversation.ErrClosed) {
		r.record(req, out, started)
	}
	return out
}

func (r *Runner) stream(ctx context.Context, conv *conversation.Conversation, req transport.GenerateRequest, opts Options) Outcome {
	body, err := r.config.Transport.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return r.cancel(conv, Outcome{})
		}
		msg, _ := conv.AbortSend(failureDetail(err))
		return Outcome{Message: msg, Err: fmt.Errorf("opening stream: %w", err)}
	}
	defer body.Close()

	// A blocked read only returns once the body is closed.
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	decOpts := []protocol.DecoderOption{protocol.WithLogger(r.logger)}
	if opts.RawTee != nil {
		decOpts = append(decOpts, protocol.WithRawTee(opts.RawTee))
	}
	dec := protocol.NewDecoder(body, decOpts...)

	var out Outcome
	for {
		ev, err := dec.Next()
		out.Skipped = dec.Skipped()

		if ctx.Err() != nil {
			return r.cancel(conv, out)
		}
		if err != nil {
			msg, _ := conv.AbortSend(failureDetail(err))
			out.Message = msg
			out.Err = fmt.Errorf("reading stream: %w", err)
			return out
		}
		if ev == nil {
			break
		}

		switch e := ev.(type) {
		case *protocol.MetadataEvent:
			out.Metadata.Merge(e.Metadata)
		case *protocol.ErrorEvent:
			out.Err = &BackendError{Detail: e.Detail}
		}
		conv.ApplyEvent(ev)

		if out.Err != nil {
			return out
		}
	}

	msg, err := conv.CompleteSend()
	out.Message = msg
	out.Err = err
	return out
}

// cancel ends a run whose context is done.
func (r *Runner) cancel(conv *conversation.Conversation, out Outcome) Outcome {
	out.Err = ErrCanceled
	if conv.Closed() {
		r.logger.Debug("view closed during generation")
		return out
	}
	msg, err := conv.AbortSend(CanceledDetail)
	if err == nil {
		out.Message = msg
	}
	return out
}

// record archives and publishes a finished run. Sink failures are logged.
func (r *Runner) record(req transport.GenerateRequest, out Outcome, started time.Time) {
	if r.config.Store == nil && r.config.Publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.SinkTimeout)
	defer cancel()

	convID := firstNonEmpty(out.Metadata.ConvID, req.ConvID)
	failed := out.Err != nil

	if r.config.Store != nil {
		rec := &storage.Record{
			ID:         strconv.FormatInt(out.Message.ID, 10),
			ConvID:     convID,
			DocID:      out.Metadata.DocID,
			DocType:    req.DocType,
			Prompt:     req.UserInput,
			Content:    out.Message.Content,
			DocxFile:   out.Message.DocxFile,
			Failed:     failed,
			CreatedAt:  started.UTC(),
			DurationMs: out.Duration.Milliseconds(),
		}
		if err := r.config.Store.Put(ctx, rec); err != nil {
			r.logger.Warn("archiving generation failed", "id", rec.ID, "error", err)
		}
	}

	if r.config.Publisher != nil {
		result := eventstream.GenerationResult{
			MessageID: out.Message.ID,
			DocID:     out.Metadata.DocID,
			DocxFile:  out.Message.DocxFile,
			Chars:     utf8.RuneCountInString(out.Message.Content),
			Failed:    failed,
		}
		if failed {
			result.Error = out.Err.Error()
			result.Chars = 0
		}

		event := eventstream.NewGenerationEvent(r.config.Source, eventstream.GenerationMeta{
			ConvID:      convID,
			DocType:     req.DocType,
			TemplateID:  req.TemplateID,
			Prompt:      req.UserInput,
			StartedAt:   started.UTC(),
			CompletedAt: started.Add(out.Duration).UTC(),
			DurationMs:  out.Duration.Milliseconds(),
		}, result)

		if err := r.config.Publisher.PublishGeneration(ctx, event); err != nil {
			r.logger.Warn("publishing generation event failed", "event_id", event.EventID, "error", err)
		}
	}
}

func findMessage(conv *conversation.Conversation, id int64) conversation.Message {
	msgs := conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == id {
			return msgs[i]
		}
	}
	return conversation.Message{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
