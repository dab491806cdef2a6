// Package storage keeps a local archive of finished generations so past
// documents can be listed and re-read without the backend.
package storage

import (
	"context"
	"time"
)

// Record is one archived generation.
type Record struct {
	ID         string    `json:"id"`
	ConvID     string    `json:"conv_id,omitempty"`
	DocID      string    `json:"doc_id,omitempty"`
	DocType    string    `json:"doc_type"`
	Prompt     string    `json:"prompt"`
	Content    string    `json:"content"`
	DocxFile   string    `json:"docx_file,omitempty"`
	Failed     bool      `json:"failed,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	DurationMs int64     `json:"duration_ms"`
}

// ListOptions filters List results. Records are returned newest first.
type ListOptions struct {
	// ConvID restricts results to one conversation when set.
	ConvID string

	// Limit caps the number of records returned. Zero means no limit.
	Limit int

	// IncludeFailed includes failed generations.
	IncludeFailed bool
}

// Driver defines the interface for persisting and retrieving archived
// generations.
type Driver interface {
	// Put stores a record, replacing any record with the same ID.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID. Returns NotFoundError if it does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records matching opts, newest first.
	List(ctx context.Context, opts ListOptions) ([]*Record, error)

	// Delete removes a record. Returns NotFoundError if it does not exist.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}

// Match reports whether rec passes the filters of o.
func (o ListOptions) Match(rec *Record) bool {
	if o.ConvID != "" && rec.ConvID != o.ConvID {
		return false
	}
	if rec.Failed && !o.IncludeFailed {
		return false
	}
	return true
}
