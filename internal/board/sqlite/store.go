// Package sqlite provides a SQLite-backed message board store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/parlorgames/parlor/internal/board/sqlite/migrations"
	"github.com/parlorgames/parlor/internal/id"
	"github.com/parlorgames/parlor/internal/message"
	"github.com/parlorgames/parlor/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists the message log in SQLite.
type Store struct {
	sqlDB *sql.DB

	clock func() time.Time
	newID func() (string, error)
}

// Open opens a SQLite board store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: time.Now, newID: id.NewID}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendMessage stamps and inserts one record.
func (s *Store) AppendMessage(ctx context.Context, from, text string) (message.Record, error) {
	if err := ctx.Err(); err != nil {
		return message.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return message.Record{}, fmt.Errorf("storage is not configured")
	}

	recordID, err := s.newID()
	if err != nil {
		return message.Record{}, fmt.Errorf("generate message id: %w", err)
	}
	rec := message.Record{
		ID:   recordID,
		When: s.clock().UTC().UnixMilli(),
		From: from,
		Text: text,
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO messages (id, at, sender, body) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.When, rec.From, rec.Text,
	)
	if err != nil {
		return message.Record{}, fmt.Errorf("insert message: %w", err)
	}
	return rec, nil
}

// ListMessages returns every record, newest first. Records sharing a
// timestamp keep insertion order via rowid.
func (s *Store) ListMessages(ctx context.Context) ([]message.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, at, sender, body FROM messages ORDER BY at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var records []message.Record
	for rows.Next() {
		var rec message.Record
		if err := rows.Scan(&rec.ID, &rec.When, &rec.From, &rec.Text); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return records, nil
}

// CountMessages returns the number of stored records.
func (s *Store) CountMessages(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var count int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
