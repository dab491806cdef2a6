// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/gongwen/pkg/storage"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// ":memory:" databases are per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	d := &Driver{db: db}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

// migrate creates the necessary tables if they don't exist.
func (d *Driver) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		conv_id TEXT NOT NULL DEFAULT '',
		doc_id TEXT NOT NULL DEFAULT '',
		doc_type TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL,
		content TEXT NOT NULL,
		docx_file TEXT NOT NULL DEFAULT '',
		failed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_generations_conv_id ON generations(conv_id);
	CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Put stores a record, replacing any record with the same ID.
func (d *Driver) Put(ctx context.Context, rec *storage.Record) error {
	if rec == nil {
		return errors.New("cannot store nil record")
	}
	if rec.ID == "" {
		return errors.New("cannot store record without ID")
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO generations
			(id, conv_id, doc_id, doc_type, prompt, content, docx_file, failed, created_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConvID, rec.DocID, rec.DocType, rec.Prompt, rec.Content,
		rec.DocxFile, rec.Failed, rec.CreatedAt.UTC(), rec.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Get retrieves a record by its ID.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Record, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, conv_id, doc_id, doc_type, prompt, content, docx_file, failed, created_at, duration_ms
		FROM generations WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return rec, nil
}

// List returns the records matching opts, newest first.
func (d *Driver) List(ctx context.Context, opts storage.ListOptions) ([]*storage.Record, error) {
	var (
		where []string
		args  []any
	)
	if opts.ConvID != "" {
		where = append(where, "conv_id = ?")
		args = append(args, opts.ConvID)
	}
	if !opts.IncludeFailed {
		where = append(where, "failed = 0")
	}

	query := `SELECT id, conv_id, doc_id, doc_type, prompt, content, docx_file, failed, created_at, duration_ms
		FROM generations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Delete removes a record by its ID.
func (d *Driver) Delete(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM generations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: id}
	}

	return nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*storage.Record, error) {
	var (
		rec       storage.Record
		createdAt time.Time
	)
	err := s.Scan(
		&rec.ID, &rec.ConvID, &rec.DocID, &rec.DocType, &rec.Prompt, &rec.Content,
		&rec.DocxFile, &rec.Failed, &createdAt, &rec.DurationMs,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = createdAt

	return &rec, nil
}
