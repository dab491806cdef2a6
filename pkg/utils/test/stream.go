// Package testutils holds fakes shared by the package test suites.
package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/papercomputeco/gongwen/pkg/eventstream"
	"github.com/papercomputeco/gongwen/pkg/transport"
)

// Frame renders one SSE frame with a JSON payload.
func Frame(event string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

// Chunk renders a message frame carrying text.
func Chunk(text string) string {
	return Frame("message", map[string]string{"chunk": text})
}

// Stream joins frames into a response body.
func Stream(frames ...string) string {
	return strings.Join(frames, "")
}

// MockTransport serves a canned body and records every request.
type MockTransport struct {
	mu       sync.Mutex
	Body     string
	Err      error
	Requests []transport.GenerateRequest

	// Reader, when set, is served instead of Body.
	Reader io.ReadCloser
}

// Generate implements transport.Transport.
func (m *MockTransport) Generate(_ context.Context, req transport.GenerateRequest) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Reader != nil {
		return m.Reader, nil
	}
	return io.NopCloser(strings.NewReader(m.Body)), nil
}

// LastRequest returns the most recent request.
func (m *MockTransport) LastRequest() transport.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests[len(m.Requests)-1]
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []*eventstream.GenerationEvent
	Err    error
}

// PublishGeneration implements eventstream.Publisher.
func (m *MockPublisher) PublishGeneration(_ context.Context, event *eventstream.GenerationEvent) error {
	if err := eventstream.Validate(event); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []*eventstream.GenerationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.GenerationEvent(nil), m.Events...)
}

// Close implements eventstream.Publisher.
func (m *MockPublisher) Close() error {
	return nil
}
