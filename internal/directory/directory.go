// Package directory maintains each client's read model of every game
// announced on the board. It folds game_info envelopes, keyed by game
// id, into the latest known summary: last write wins, ordered by record
// timestamp with log order breaking ties.
package directory

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/message"
)

type entry struct {
	summary   game.Summary
	when      int64
	applied   uint64
	firstSeen uint64
}

// Projection is the folded game directory.
type Projection struct {
	mu      sync.RWMutex
	games   map[string]*entry
	arrival uint64
}

// New creates an empty projection.
func New() *Projection {
	return &Projection{games: make(map[string]*entry)}
}

// Apply folds one decoded record into the projection and returns the
// projection's current summary for that game. Records other than
// well-formed game_info envelopes are ignored and report false. A stale
// record (older timestamp) changes nothing but still reports true with
// the retained newer summary. Records must arrive in log order (the bus
// guarantees this); arrival order is the tiebreak for equal timestamps.
func (p *Projection) Apply(dec message.Decoded) (game.Summary, bool) {
	if dec.Kind != message.KindGameInfo {
		return game.Summary{}, false
	}

	var summary game.Summary
	if err := json.Unmarshal(dec.Body, &summary); err != nil {
		log.Printf("discard malformed game_info record %s: %v", dec.ID, err)
		return game.Summary{}, false
	}
	if summary.ID == "" {
		return game.Summary{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.arrival++

	existing, ok := p.games[summary.ID]
	if !ok {
		p.games[summary.ID] = &entry{
			summary:   summary,
			when:      dec.When,
			applied:   p.arrival,
			firstSeen: p.arrival,
		}
		return summary, true
	}
	if dec.When < existing.when {
		return existing.summary, true
	}
	existing.summary = summary
	existing.when = dec.When
	existing.applied = p.arrival
	return summary, true
}

// List returns every known game summary, oldest first seen first.
func (p *Projection) List() []game.Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*entry, 0, len(p.games))
	for _, e := range p.games {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].firstSeen < entries[j].firstSeen
	})

	out := make([]game.Summary, len(entries))
	for i, e := range entries {
		out[i] = e.summary
	}
	return out
}

// CurrentGameFor returns the live game the player is part of. When a
// player somehow appears in more than one live game, the most recently
// created wins; single-current-game is advisory, not enforced.
func (p *Projection) CurrentGameFor(playerID string) (game.Summary, bool) {
	if playerID == "" {
		return game.Summary{}, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var best *entry
	for _, e := range p.games {
		if !e.summary.Status.Live() || !e.summary.HasPlayer(playerID) {
			continue
		}
		if best == nil || e.firstSeen > best.firstSeen {
			best = e
		}
	}
	if best == nil {
		return game.Summary{}, false
	}
	return best.summary, true
}

// Get returns the summary for one game id.
func (p *Projection) Get(gameID string) (game.Summary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.games[gameID]
	if !ok {
		return game.Summary{}, false
	}
	return e.summary, true
}
