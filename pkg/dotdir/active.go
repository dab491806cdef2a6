package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	activeFile = "active.json"
)

// ActiveConversation points at the backend conversation that the next chat
// session resumes.
type ActiveConversation struct {
	// ConvID is the backend conversation id.
	ConvID string `json:"conv_id"`

	// DocType is the document type last generated in the conversation.
	DocType string `json:"doc_type,omitempty"`

	// Title is a short label for display.
	Title string `json:"title,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// LoadActive loads .gongwen/active.json.
// Returns nil, nil if no conversation is active.
func (m *Manager) LoadActive(overrideDir string) (*ActiveConversation, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, activeFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active conversation: %w", err)
	}

	active := &ActiveConversation{}
	if err := json.Unmarshal(data, active); err != nil {
		return nil, fmt.Errorf("parsing active conversation: %w", err)
	}
	if active.ConvID == "" {
		return nil, nil
	}

	return active, nil
}

// SaveActive persists the active conversation pointer.
func (m *Manager) SaveActive(active *ActiveConversation, overrideDir string) error {
	if active == nil || active.ConvID == "" {
		return errors.New("cannot save active conversation without conv_id")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	if active.UpdatedAt.IsZero() {
		active.UpdatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(active, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling active conversation: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, activeFile), data, 0o600); err != nil {
		return fmt.Errorf("writing active conversation: %w", err)
	}

	return nil
}

// ClearActive removes the pointer so the next chat session starts a new
// conversation. Returns nil if nothing was active.
func (m *Manager) ClearActive(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, activeFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing active conversation: %w", err)
	}

	return nil
}
