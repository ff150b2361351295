// Package engine defines the pluggable per-title turn-processing
// contract and the registry that resolves title ids to engine
// constructors. The registry is injected wherever engines are built;
// there is no process-wide instance.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownTitle indicates no engine is registered for a title id.
	ErrUnknownTitle = errors.New("no engine registered for title")
	// ErrDuplicateTitle indicates a title id registered twice.
	ErrDuplicateTitle = errors.New("title already registered")
)

// PlayerData pairs a player id with an opaque per-engine payload: a
// view state when flowing out of an engine, an action flowing in.
type PlayerData struct {
	PlayerID string          `json:"playerId"`
	Data     json.RawMessage `json:"data"`
}

// UpdateResult is what an engine reports after processing.
type UpdateResult struct {
	Finished    bool         `json:"isFinished"`
	PlayerViews []PlayerData `json:"playerViewStates"`
}

// Engine computes authoritative game state for one game instance.
// Engines are driven only by the host's orchestrator and need not be
// safe for concurrent use.
type Engine interface {
	// Start begins the game and returns the initial per-player views.
	Start() (UpdateResult, error)
	// Update applies player actions and returns the resulting views.
	Update(actions []PlayerData) (UpdateResult, error)
}

// Constructor builds an engine for the ordered participant list.
type Constructor func(playerIDs []string, options json.RawMessage) (Engine, error)

// Registry maps title ids to engine constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register binds a title id to a constructor. Registering the same
// title twice is an error.
func (r *Registry) Register(titleID string, ctor Constructor) error {
	if titleID == "" {
		return fmt.Errorf("title id is required")
	}
	if ctor == nil {
		return fmt.Errorf("constructor is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[titleID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTitle, titleID)
	}
	r.ctors[titleID] = ctor
	return nil
}

// New builds an engine instance for the given title.
func (r *Registry) New(titleID string, playerIDs []string, options json.RawMessage) (Engine, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[titleID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTitle, titleID)
	}
	return ctor(playerIDs, options)
}

// Titles returns the registered title ids, sorted.
func (r *Registry) Titles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	titles := make([]string, 0, len(r.ctors))
	for title := range r.ctors {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
