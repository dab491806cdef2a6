package logger

import (
	"io"
	"log/slog"
)

// Option configures the logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug. Stream decoding and request traces are
// only logged at this level.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the colored charmbracelet/log handler used for
// interactive commands.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON selects slog's JSON handler. It wins over WithPretty.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter sends output to w instead of os.Stdout. Commands pass their
// error stream so log lines never mix with generated text.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters sends output to all of ws.
func WithWriters(ws ...io.Writer) Option {
	return func(c *config) { c.writers = ws }
}

// WithSource adds the file:line of the call site to each record.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}
