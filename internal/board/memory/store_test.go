package memory

import (
	"context"
	"testing"
)

func TestAppendStampsAndOrdersNewestFirst(t *testing.T) {
	store := New()
	ctx := context.Background()

	first, err := store.AppendMessage(ctx, "ada", "one")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := store.AppendMessage(ctx, "bob", "two")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if first.ID == "" || second.ID == "" {
		t.Fatal("expected stamped ids")
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct ids")
	}
	if first.When == 0 {
		t.Fatal("expected stamped timestamp")
	}

	records, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Text != "two" || records[1].Text != "one" {
		t.Fatalf("expected newest first, got %q then %q", records[0].Text, records[1].Text)
	}

	count, err := store.CountMessages(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.AppendMessage(ctx, "ada", "one"); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	records[0].Text = "mutated"

	again, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if again[0].Text != "one" {
		t.Fatal("expected stored record to be immutable")
	}
}

func TestContextCancellation(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.AppendMessage(ctx, "ada", "one"); err == nil {
		t.Fatal("expected context error on append")
	}
	if _, err := store.ListMessages(ctx); err == nil {
		t.Fatal("expected context error on list")
	}
}
