// Package board defines the message board storage contract: an
// append-only log of records served newest first. The board is the only
// shared mutable resource in the system; records are never updated or
// deleted once appended.
package board

import (
	"context"

	"github.com/parlorgames/parlor/internal/message"
)

// MessageStore persists the append-only message log.
type MessageStore interface {
	// AppendMessage stamps id and timestamp on the message and stores it.
	AppendMessage(ctx context.Context, from, text string) (message.Record, error)
	// ListMessages returns every record, newest first.
	ListMessages(ctx context.Context) ([]message.Record, error)
	// CountMessages returns the number of stored records.
	CountMessages(ctx context.Context) (int, error)
	Close() error
}
