package app

import (
	"fmt"
	"io"

	"github.com/papercomputeco/gongwen/pkg/conversation"
)

// Echo writes the growing preview of a conversation to w as it streams.
// Subscribe its Listen method to a conversation.
type Echo struct {
	w       io.Writer
	printed int
	sending bool
	wrote   bool
}

// NewEcho creates an Echo writing to w.
func NewEcho(w io.Writer) *Echo {
	return &Echo{w: w}
}

// Listen prints the part of the preview not written yet.
func (e *Echo) Listen(s conversation.Snapshot) {
	if s.State != conversation.StateSending {
		e.sending = false
		return
	}

	if !e.sending {
		e.sending = true
		e.printed = 0
		e.wrote = false
	}

	if len(s.Preview) <= e.printed {
		return
	}

	fmt.Fprint(e.w, s.Preview[e.printed:])
	e.printed = len(s.Preview)
	e.wrote = true
}

// Wrote reports whether the last send echoed any text.
func (e *Echo) Wrote() bool {
	return e.wrote
}
