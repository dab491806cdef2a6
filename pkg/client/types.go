package client

import (
	"fmt"
	"time"

	"github.com/papercomputeco/gongwen/pkg/conversation"
)

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Pages returns the number of pages needed to hold Total items.
func (p Page[T]) Pages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// ConversationSummary is a row of the conversation sidebar.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DocType   string    `json:"doc_type,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationDetail is a conversation with its stored messages.
type ConversationDetail struct {
	ConversationSummary
	Messages []StoredMessage `json:"messages"`
}

// StoredMessage is a message as persisted by the backend.
type StoredMessage struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	Content  string `json:"content"`
	DocxFile string `json:"docx_file,omitempty"`
}

// History converts the stored messages for loading into a conversation view.
func (d ConversationDetail) History() []conversation.Message {
	out := make([]conversation.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		out = append(out, conversation.Message{
			ID:       m.ID,
			Role:     conversation.Role(m.Role),
			Content:  m.Content,
			DocxFile: m.DocxFile,
		})
	}
	return out
}

// Template is an uploaded document template.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DocType   string    `json:"doc_type"`
	Filename  string    `json:"filename,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TemplatePage is a page of templates.
type TemplatePage = Page[Template]

// Document is a generated .docx kept by the backend.
type Document struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	DocType   string    `json:"doc_type,omitempty"`
	ConvID    string    `json:"conv_id,omitempty"`
	Size      int64     `json:"size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentPage is a page of documents.
type DocumentPage = Page[Document]

// ModelConfig is a model provider configuration stored on the backend.
type ModelConfig struct {
	ID       string `json:"id,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Active   bool   `json:"active"`
}

// Validate checks the fields the backend requires.
func (m ModelConfig) Validate() error {
	if m.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if m.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// MaskedKey returns the API key with all but the last four characters hidden.
func (m ModelConfig) MaskedKey() string {
	runes := []rune(m.APIKey)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}
