// Package host is the authority for games created by this client. It
// owns the only mutable record of each hosted game, runs the engine,
// admits or silently drops join requests, and publishes every state
// change back to the board as envelopes.
//
// Operations on one game never interleave: a per-game mutex supplies
// the single-writer rule that a single-threaded host gets for free.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/game/engine"
	"github.com/parlorgames/parlor/internal/id"
)

// Publisher appends envelopes to the board on the authority's behalf.
type Publisher interface {
	PublishGameInfo(ctx context.Context, summary game.Summary) error
	PublishViewState(ctx context.Context, gameID, playerID string, view json.RawMessage) error
}

type hostedGame struct {
	mu       sync.Mutex
	id       string
	settings game.Settings
	status   game.Status
	players  []game.Player
	engine   engine.Engine
}

func (hg *hostedGame) summary() game.Summary {
	players := make([]game.Player, len(hg.players))
	copy(players, hg.players)
	return game.Summary{
		ID:       hg.id,
		Settings: hg.settings,
		Status:   hg.status,
		Players:  players,
	}
}

// Authority holds every game hosted by this client.
type Authority struct {
	registry  *engine.Registry
	publisher Publisher
	newID     func() (string, error)

	mu    sync.RWMutex
	games map[string]*hostedGame
}

// New creates an authority building engines from registry and
// publishing through publisher.
func New(registry *engine.Registry, publisher Publisher) *Authority {
	return &Authority{
		registry:  registry,
		publisher: publisher,
		newID:     id.NewID,
		games:     make(map[string]*hostedGame),
	}
}

// CreateGame allocates a hosted game in Preparing with the host as its
// only player and announces it. A failed announcement undoes the
// creation so retrying cannot leave a half-created game behind.
func (a *Authority) CreateGame(ctx context.Context, settings game.Settings, hostPlayer game.Player) (string, error) {
	if err := game.ValidateSettings(settings); err != nil {
		return "", err
	}

	gameID, err := a.newID()
	if err != nil {
		return "", fmt.Errorf("allocate game id: %w", err)
	}

	hostPlayer.IsHost = true
	hg := &hostedGame{
		id:       gameID,
		settings: settings,
		status:   game.StatusPreparing,
		players:  []game.Player{hostPlayer},
	}

	a.mu.Lock()
	a.games[gameID] = hg
	a.mu.Unlock()

	if err := a.publisher.PublishGameInfo(ctx, hg.summary()); err != nil {
		a.mu.Lock()
		delete(a.games, gameID)
		a.mu.Unlock()
		return "", fmt.Errorf("announce game: %w", err)
	}
	return gameID, nil
}

// Hosts reports whether this client owns the game.
func (a *Authority) Hosts(gameID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.games[gameID]
	return ok
}

func (a *Authority) get(gameID string) (*hostedGame, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	hg, ok := a.games[gameID]
	return hg, ok
}

// StartGame builds the engine, starts it, and publishes the initial
// per-player views plus the updated summary. Engine construction
// errors (for example too few players) leave the game in Preparing.
func (a *Authority) StartGame(ctx context.Context, gameID string) error {
	hg, ok := a.get(gameID)
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrNotHost, gameID)
	}

	hg.mu.Lock()
	defer hg.mu.Unlock()

	if hg.status != game.StatusPreparing {
		return fmt.Errorf("%w: cannot start game in status %s", game.ErrInvalidState, hg.status)
	}

	playerIDs := make([]string, len(hg.players))
	for i, p := range hg.players {
		playerIDs[i] = p.ID
	}
	eng, err := a.registry.New(hg.settings.TitleID, playerIDs, hg.settings.Options)
	if err != nil {
		return err
	}

	result, err := eng.Start()
	if err != nil {
		return err
	}

	hg.engine = eng
	hg.status = game.StatusPlaying
	if result.Finished {
		hg.status = game.StatusFinished
	}

	return a.publishResult(ctx, hg, result, true)
}

// HandleJoinRequest admits the player when the game is still preparing
// and has a free seat. Anything else is silently ignored: join races
// are expected and rejection is an admission decision, not an error.
func (a *Authority) HandleJoinRequest(ctx context.Context, gameID string, player game.Player) error {
	hg, ok := a.get(gameID)
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrUnknownGame, gameID)
	}

	hg.mu.Lock()
	defer hg.mu.Unlock()

	if hg.status != game.StatusPreparing {
		return nil
	}
	if len(hg.players) >= hg.settings.MaxPlayers {
		return nil
	}
	for _, p := range hg.players {
		if p.ID == player.ID {
			return nil
		}
	}

	player.IsHost = false
	hg.players = append(hg.players, player)
	return a.publisher.PublishGameInfo(ctx, hg.summary())
}

// HandlePlayerAction forwards one action to the engine and publishes
// the resulting views. Engine rule violations propagate to the caller
// and publish nothing; the sender observes no state change.
func (a *Authority) HandlePlayerAction(ctx context.Context, gameID, playerID string, action json.RawMessage) error {
	hg, ok := a.get(gameID)
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrUnknownGame, gameID)
	}

	hg.mu.Lock()
	defer hg.mu.Unlock()

	if hg.status != game.StatusPlaying || hg.engine == nil {
		return fmt.Errorf("%w: game is not playing", game.ErrInvalidState)
	}

	result, err := hg.engine.Update([]engine.PlayerData{{PlayerID: playerID, Data: action}})
	if err != nil {
		return err
	}

	finished := result.Finished
	if finished {
		hg.status = game.StatusFinished
	}
	return a.publishResult(ctx, hg, result, finished)
}

// Summaries returns the current summaries of every hosted game.
func (a *Authority) Summaries() []game.Summary {
	a.mu.RLock()
	games := make([]*hostedGame, 0, len(a.games))
	for _, hg := range a.games {
		games = append(games, hg)
	}
	a.mu.RUnlock()

	out := make([]game.Summary, 0, len(games))
	for _, hg := range games {
		hg.mu.Lock()
		out = append(out, hg.summary())
		hg.mu.Unlock()
	}
	return out
}

func (a *Authority) publishResult(ctx context.Context, hg *hostedGame, result engine.UpdateResult, withInfo bool) error {
	for _, view := range result.PlayerViews {
		if err := a.publisher.PublishViewState(ctx, hg.id, view.PlayerID, view.Data); err != nil {
			return fmt.Errorf("publish view state for %s: %w", view.PlayerID, err)
		}
	}
	if withInfo {
		if err := a.publisher.PublishGameInfo(ctx, hg.summary()); err != nil {
			return fmt.Errorf("publish game info: %w", err)
		}
	}
	return nil
}
