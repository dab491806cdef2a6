package mockserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Script describes the event stream served for a generation.
type Script struct {
	// Chunks are sent as message events. When empty a short notice built
	// from the request is streamed.
	Chunks []string

	// Metadata is merged over the generated filename/conv_id/doc_id.
	Metadata map[string]any

	// ErrorDetail, when set, ends the stream with an error event after the
	// chunks.
	ErrorDetail string

	// Malformed interleaves fragments a client has to skip.
	Malformed bool

	// Delay is slept between frames.
	Delay time.Duration

	// SplitBytes writes the body in pieces of this many bytes, cutting
	// through lines and multi-byte characters.
	SplitBytes int
}

// defaultChunks returns a plausible document for userInput.
func defaultChunks(docType, userInput string) []string {
	return []string{
		"尊敬的各位",
		"同事：\n\n",
		"根据工作安排，现就“" + userInput + "”有关事项" + docType + "如下。\n\n",
		"一、请各部门认真组织落实。\n",
		"二、如有问题请及时反馈。\n\n",
		"特此" + docType + "。\n",
	}
}

// render builds the full response body for s.
func (s Script) render(docType, userInput string, metadata map[string]any) []string {
	chunks := s.Chunks
	if len(chunks) == 0 {
		chunks = defaultChunks(docType, userInput)
	}

	frames := make([]string, 0, len(chunks)+4)
	if s.Malformed {
		frames = append(frames, ": keep-alive\n\n", "event: message\ndata: {\"chunk\": \n\n", "data:    \n\n")
	}
	for i, c := range chunks {
		frames = append(frames, frame("message", map[string]string{"chunk": c}))
		if s.Malformed && i == 0 {
			frames = append(frames, "event: progress\ndata: {\"percent\": 10}\n\n")
		}
	}

	if s.ErrorDetail != "" {
		frames = append(frames, frame("error", map[string]string{"detail": s.ErrorDetail}))
		return frames
	}

	return append(frames, frame("metadata", metadata))
}

func frame(event string, payload any) string {
	data, _ := json.Marshal(payload)
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

// split cuts body into pieces of n bytes.
func split(body string, n int) []string {
	if n <= 0 {
		return []string{body}
	}
	var out []string
	for len(body) > n {
		out = append(out, body[:n])
		body = body[n:]
	}
	if body != "" {
		out = append(out, body)
	}
	return out
}

func joinContent(chunks []string) string {
	var b strings.Builder
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			b.WriteString(c)
		}
	}
	return b.String()
}
