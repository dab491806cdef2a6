// Package inmemory provides a map-backed storage driver used in tests and
// when no archive path is configured.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/gongwen/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is the in memory map of records keyed by record ID
	records map[string]*storage.Record
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.Record),
	}
}

// Put stores a copy of the record.
func (d *Driver) Put(_ context.Context, rec *storage.Record) error {
	if rec == nil {
		return errors.New("cannot store nil record")
	}
	if rec.ID == "" {
		return errors.New("cannot store record without ID")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *rec
	d.records[rec.ID] = &cp
	return nil
}

// Get retrieves a record by its ID.
func (d *Driver) Get(_ context.Context, id string) (*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	cp := *rec
	return &cp, nil
}

// List returns the records matching opts, newest first.
func (d *Driver) List(_ context.Context, opts storage.ListOptions) ([]*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*storage.Record, 0, len(d.records))
	for _, rec := range d.records {
		if !opts.Match(rec) {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}

	slices.SortFunc(result, func(a, b *storage.Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// Delete removes a record by its ID.
func (d *Driver) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[id]; !ok {
		return storage.NotFoundError{ID: id}
	}
	delete(d.records, id)
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
