// Package conversation holds the client-side state of one conversation view:
// the ordered message list, the single in-flight generation session and the
// preview projection shown next to the chat.
package conversation

import (
	"github.com/papercomputeco/gongwen/pkg/protocol"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrorMarker prefixes the content of an assistant message whose generation
// failed, so a failure can never be mistaken for a short valid answer.
const ErrorMarker = "❌ 生成失败："

// EmptyResultDetail is the detail used when a stream ends without any text.
const EmptyResultDetail = "未生成任何内容"

// Message is one turn of a conversation.
type Message struct {
	// ID is the provisional id assigned when the message was created. It is
	// never changed, even once the backend has assigned a durable id.
	ID int64 `json:"id"`

	Role    Role   `json:"role"`
	Content string `json:"content"`

	// DocxFile is the generated document's filename. It is only set once a
	// generation completes successfully with metadata naming a file.
	DocxFile string `json:"docx_file,omitempty"`

	// Failed marks an assistant message whose content is an error notice.
	Failed bool `json:"failed,omitempty"`
}

// State is the lifecycle state of a conversation view.
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Session is the bookkeeping for the one in-flight generation.
type Session struct {
	PlaceholderID int64
	Accumulated   string
	Metadata      protocol.Metadata
}

// errorContent renders the visible content of a failed generation.
func errorContent(detail string) string {
	return ErrorMarker + detail
}
