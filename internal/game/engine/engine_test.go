package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

type nullEngine struct{}

func (nullEngine) Start() (UpdateResult, error) {
	return UpdateResult{}, nil
}

func (nullEngine) Update(actions []PlayerData) (UpdateResult, error) {
	return UpdateResult{Finished: true}, nil
}

func nullConstructor(playerIDs []string, options json.RawMessage) (Engine, error) {
	return nullEngine{}, nil
}

func TestRegisterAndNew(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("Null", nullConstructor); err != nil {
		t.Fatalf("register: %v", err)
	}

	eng, err := reg.New("Null", []string{"p1"}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if eng == nil {
		t.Fatal("expected engine instance")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("Null", nullConstructor); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("Null", nullConstructor); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected duplicate title error, got %v", err)
	}
}

func TestNewUnknownTitle(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.New("Ghost", nil, nil); !errors.Is(err, ErrUnknownTitle) {
		t.Fatalf("expected unknown title error, got %v", err)
	}
}

func TestTitlesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, title := range []string{"Zebra", "Apple", "Mango"} {
		if err := reg.Register(title, nullConstructor); err != nil {
			t.Fatalf("register %s: %v", title, err)
		}
	}

	titles := reg.Titles()
	want := []string{"Apple", "Mango", "Zebra"}
	if len(titles) != len(want) {
		t.Fatalf("expected %d titles, got %d", len(want), len(titles))
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, titles)
		}
	}
}
