// Package memory provides the in-memory message board store. It is the
// default backend: the board promises no persistence beyond the process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parlorgames/parlor/internal/id"
	"github.com/parlorgames/parlor/internal/message"
)

// Store holds the message log in memory, newest first.
type Store struct {
	mu      sync.RWMutex
	records []message.Record

	clock func() time.Time
	newID func() (string, error)
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{clock: time.Now, newID: id.NewID}
}

// AppendMessage stamps and stores one record.
func (s *Store) AppendMessage(ctx context.Context, from, text string) (message.Record, error) {
	if err := ctx.Err(); err != nil {
		return message.Record{}, err
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

	s.mu.Lock()
	s.records = append([]message.Record{rec}, s.records...)
	s.mu.Unlock()

	return rec, nil
}

// ListMessages returns a copy of the log, newest first.
func (s *Store) ListMessages(ctx context.Context) ([]message.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]message.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// CountMessages returns the number of stored records.
func (s *Store) CountMessages(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close releases nothing; it exists to satisfy the store contract.
func (s *Store) Close() error {
	return nil
}
