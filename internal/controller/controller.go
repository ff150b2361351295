// Package controller is the per-client orchestration layer. It routes
// decoded board records to the directory, the hosting authority, and
// the local view cache, and it turns player intents (create, join, act)
// into envelopes appended to the board.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/parlorgames/parlor/internal/directory"
	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/host"
	"github.com/parlorgames/parlor/internal/message"
)

// Appender encodes a typed body and appends it to the board as this
// client's identity.
type Appender interface {
	AppendEnvelope(ctx context.Context, kind message.Kind, body any) error
}

type viewEntry struct {
	state json.RawMessage
	when  int64
}

// Controller coordinates one client's participation in games.
type Controller struct {
	self      game.Player
	directory *directory.Projection
	authority *host.Authority
	appender  Appender

	mu        sync.RWMutex
	views     map[string]viewEntry
	onUpdated []func(game.Summary)
}

// New creates a controller acting as self.
func New(self game.Player, dir *directory.Projection, authority *host.Authority, appender Appender) *Controller {
	return &Controller{
		self:      self,
		directory: dir,
		authority: authority,
		appender:  appender,
		views:     make(map[string]viewEntry),
	}
}

// Self returns the identity this controller acts as.
func (c *Controller) Self() game.Player {
	return c.self
}

// HandleRecord routes one decoded record. It is the controller's bus
// subscription and must never fail: routing problems are logged, and
// records meant for other clients are dropped without comment.
func (c *Controller) HandleRecord(dec message.Decoded) {
	switch dec.Kind {
	case message.KindGameInfo:
		c.handleGameInfo(dec)
	case message.KindJoinRequest:
		c.handleJoinRequest(dec)
	case message.KindPlayerAction:
		c.handlePlayerAction(dec)
	case message.KindViewState:
		c.handleViewState(dec)
	}
}

func (c *Controller) handleGameInfo(dec message.Decoded) {
	current, ok := c.directory.Apply(dec)
	if !ok {
		return
	}

	c.mu.RLock()
	callbacks := make([]func(game.Summary), len(c.onUpdated))
	copy(callbacks, c.onUpdated)
	c.mu.RUnlock()
	for _, fn := range callbacks {
		fn(current)
	}
}

func (c *Controller) handleJoinRequest(dec message.Decoded) {
	var body message.JoinRequestBody
	if err := json.Unmarshal(dec.Body, &body); err != nil {
		log.Printf("discard malformed join_request record %s: %v", dec.ID, err)
		return
	}
	if !c.authority.Hosts(body.GameID) {
		return
	}
	if err := c.authority.HandleJoinRequest(context.Background(), body.GameID, body.Player); err != nil {
		log.Printf("join request for game %s: %v", body.GameID, err)
	}
}

func (c *Controller) handlePlayerAction(dec message.Decoded) {
	var body message.PlayerActionBody
	if err := json.Unmarshal(dec.Body, &body); err != nil {
		log.Printf("discard malformed player_action record %s: %v", dec.ID, err)
		return
	}
	if !c.authority.Hosts(body.GameID) {
		return
	}
	err := c.authority.HandlePlayerAction(context.Background(), body.GameID, body.Player.ID, body.Action)
	if err != nil {
		// Rule violations are the sender's problem; they see no state
		// change. The host just notes them.
		log.Printf("action by %s in game %s: %v", body.Player.ID, body.GameID, err)
	}
}

func (c *Controller) handleViewState(dec message.Decoded) {
	var body message.ViewStateBody
	if err := json.Unmarshal(dec.Body, &body); err != nil {
		log.Printf("discard malformed view_state record %s: %v", dec.ID, err)
		return
	}
	if body.To != c.self.ID || body.GameID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Last write by record timestamp wins, same as the directory, so a
	// late-delivered older view can never clobber a newer one.
	if existing, ok := c.views[body.GameID]; ok && dec.When < existing.when {
		return
	}
	c.views[body.GameID] = viewEntry{state: body.ViewState, when: dec.When}
}

// OnGameUpdated registers a callback invoked after every directory
// update. Callbacks run on the poll loop; keep them short.
func (c *Controller) OnGameUpdated(fn func(game.Summary)) {
	c.mu.Lock()
	c.onUpdated = append(c.onUpdated, fn)
	c.mu.Unlock()
}

// CreateGame creates a game hosted by this client.
func (c *Controller) CreateGame(ctx context.Context, settings game.Settings) (string, error) {
	return c.authority.CreateGame(ctx, settings, c.self)
}

// StartGame starts a game this client hosts.
func (c *Controller) StartGame(ctx context.Context, gameID string) error {
	return c.authority.StartGame(ctx, gameID)
}

// JoinGame publishes a join request for gameID and returns without
// waiting for an answer. Admission, if granted, shows up later as a
// game_info update listing this player; rejection is silence.
func (c *Controller) JoinGame(ctx context.Context, gameID string) error {
	if gameID == "" {
		return fmt.Errorf("%w: empty game id", game.ErrUnknownGame)
	}
	body := message.JoinRequestBody{GameID: gameID, Player: c.self}
	if err := c.appender.AppendEnvelope(ctx, message.KindJoinRequest, body); err != nil {
		return fmt.Errorf("send join request: %w", err)
	}
	return nil
}

// SendPlayerAction publishes an action for gameID. Hosted games take
// the same path as remote ones: the action round-trips through the
// board so every move is on the log in order.
func (c *Controller) SendPlayerAction(ctx context.Context, gameID string, action json.RawMessage) error {
	if gameID == "" {
		return fmt.Errorf("%w: empty game id", game.ErrUnknownGame)
	}
	body := message.PlayerActionBody{GameID: gameID, Player: c.self, Action: action}
	if err := c.appender.AppendEnvelope(ctx, message.KindPlayerAction, body); err != nil {
		return fmt.Errorf("send player action: %w", err)
	}
	return nil
}

// Games lists every game known to the directory.
func (c *Controller) Games() []game.Summary {
	return c.directory.List()
}

// CurrentGame returns the live game this client is part of, if any.
func (c *Controller) CurrentGame() (game.Summary, bool) {
	return c.directory.CurrentGameFor(c.self.ID)
}

// ViewState returns this client's latest view of gameID.
func (c *Controller) ViewState(gameID string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.views[gameID]
	return entry.state, ok
}

// ErrNoView indicates no view state has arrived for a game yet.
var ErrNoView = errors.New("no view state received for game")

// GameView is a handle on one game from this client's seat: the latest
// view the host sent us, and a way to act on it.
type GameView struct {
	gameID     string
	controller *Controller
}

// Game returns a handle on gameID.
func (c *Controller) Game(gameID string) GameView {
	return GameView{gameID: gameID, controller: c}
}

// State returns the latest view state for the game.
func (v GameView) State() (json.RawMessage, error) {
	view, ok := v.controller.ViewState(v.gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoView, v.gameID)
	}
	return view, nil
}

// SubmitAction publishes an action for the game.
func (v GameView) SubmitAction(ctx context.Context, action json.RawMessage) error {
	return v.controller.SendPlayerAction(ctx, v.gameID, action)
}
