package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAppendAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.AppendMessage(ctx, "ada", "one")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendMessage(ctx, "bob", "two"); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].ID != first.ID {
		t.Fatalf("expected oldest record last, got %q", records[1].ID)
	}

	count, err := store.CountMessages(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestListBreaksTimestampTiesByInsertionOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return fixed }

	if _, err := store.AppendMessage(ctx, "ada", "first"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendMessage(ctx, "ada", "second"); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if records[0].Text != "second" || records[1].Text != "first" {
		t.Fatalf("expected insertion order tiebreak, got %q then %q", records[0].Text, records[1].Text)
	}
}

func TestReopenKeepsMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.AppendMessage(ctx, "ada", "persisted"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Text != "persisted" {
		t.Fatalf("expected persisted record, got %+v", records)
	}
}
