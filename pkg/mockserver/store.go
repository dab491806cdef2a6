package mockserver

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/papercomputeco/gongwen/pkg/client"
)

// store holds the fixtures the mock backend serves.
type store struct {
	mu            sync.Mutex
	nextID        int
	conversations map[string]*client.ConversationDetail
	templates     []client.Template
	documents     []client.Document
	docBodies     map[string][]byte
	models        []client.ModelConfig
}

func newStore() *store {
	s := &store{
		conversations: make(map[string]*client.ConversationDetail),
		docBodies:     make(map[string][]byte),
	}
	now := time.Now().UTC()
	s.templates = []client.Template{
		{ID: s.id(), Name: "通用通知模板", DocType: "通知", Filename: "notice.docx", CreatedAt: now},
		{ID: s.id(), Name: "请示模板", DocType: "请示", Filename: "request.docx", CreatedAt: now},
	}
	s.models = []client.ModelConfig{
		{ID: s.id(), Provider: "deepseek", Model: "deepseek-chat", APIKey: "sk-mock-0000", Active: true},
	}
	return s
}

// id allocates a sequential id. Callers hold s.mu or are constructing s.
func (s *store) id() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

// recordGeneration appends a finished exchange and returns the conv and doc ids.
func (s *store) recordGeneration(convID, docType, userInput, content, filename string) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv, ok := s.conversations[convID]
	if !ok {
		convID = s.id()
		conv = &client.ConversationDetail{
			ConversationSummary: client.ConversationSummary{ID: convID, Title: userInput, DocType: docType},
		}
		s.conversations[convID] = conv
	}
	conv.UpdatedAt = now

	msgID := now.UnixMilli()
	conv.Messages = append(conv.Messages,
		client.StoredMessage{ID: msgID, Role: "user", Content: userInput},
		client.StoredMessage{ID: msgID + 1, Role: "assistant", Content: content, DocxFile: filename},
	)

	docID := s.id()
	body := []byte(content)
	s.documents = append(s.documents, client.Document{
		ID: docID, Filename: filename, DocType: docType, ConvID: convID, Size: int64(len(body)), CreatedAt: now,
	})
	s.docBodies[docID] = body

	return convID, docID
}

func (s *store) listConversations() []client.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]client.ConversationSummary, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c.ConversationSummary)
	}
	slices.SortFunc(out, func(a, b client.ConversationSummary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

func (s *store) conversation(id string) (client.ConversationDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return client.ConversationDetail{}, false
	}
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	return cp, true
}

func (s *store) deleteConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return false
	}
	delete(s.conversations, id)
	return true
}

func paginate[T any](items []T, page, pageSize int) client.Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	start := min((page-1)*pageSize, len(items))
	end := min(start+pageSize, len(items))
	return client.Page[T]{
		Items:    slices.Clone(items[start:end]),
		Total:    len(items),
		Page:     page,
		PageSize: pageSize,
	}
}
