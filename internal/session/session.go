// Package session composes one client process: identity, board
// transport, the poll loop, and the controller. A session is what a
// frontend embeds to take part in games and chat on a board.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/parlorgames/parlor/internal/board/client"
	"github.com/parlorgames/parlor/internal/controller"
	"github.com/parlorgames/parlor/internal/directory"
	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/game/engine"
	"github.com/parlorgames/parlor/internal/host"
	"github.com/parlorgames/parlor/internal/id"
	"github.com/parlorgames/parlor/internal/message"
	"github.com/parlorgames/parlor/internal/platform/config"
	"github.com/parlorgames/parlor/internal/poll"
)

// Config is the client process configuration.
type Config struct {
	BoardURL     string        `env:"PARLOR_BOARD_URL"`
	UserName     string        `env:"PARLOR_USER_NAME"`
	PollInterval time.Duration `env:"PARLOR_POLL_INTERVAL" envDefault:"1s"`
	Watch        bool          `env:"PARLOR_BOARD_WATCH"`
}

// ParseConfig loads Config from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.BoardURL == "" {
		return Config{}, fmt.Errorf("PARLOR_BOARD_URL is required")
	}
	return cfg, nil
}

// Session is one client's connection to a board. It implements the
// publishing side for both the controller and the hosting authority,
// so every envelope this process emits goes through one append path.
type Session struct {
	self       game.Player
	client     *client.Client
	bus        *poll.Bus
	poller     *poll.Poller
	controller *controller.Controller
	watch      bool

	mu   sync.RWMutex
	chat []message.Record
}

// New builds a session for cfg. The player id is minted per process;
// identity does not survive restarts, which is fine for a lobby model
// where games are short-lived.
func New(cfg Config, registry *engine.Registry) (*Session, error) {
	boardClient, err := client.New(cfg.BoardURL)
	if err != nil {
		return nil, err
	}

	playerID, err := id.NewID()
	if err != nil {
		return nil, fmt.Errorf("mint player id: %w", err)
	}

	s := &Session{
		self:   game.Player{ID: playerID, Name: cfg.UserName},
		client: boardClient,
		bus:    poll.NewBus(),
		watch:  cfg.Watch,
	}
	s.poller = poll.New(boardClient, s.bus, cfg.PollInterval)

	authority := host.New(registry, s)
	s.controller = controller.New(s.self, directory.New(), authority, s)

	// Subscriptions go in before the first poll so startup replay
	// reaches them.
	if _, err := s.bus.Subscribe(s.controller.HandleRecord); err != nil {
		return nil, fmt.Errorf("subscribe controller: %w", err)
	}
	if _, err := s.bus.Subscribe(s.collectChat); err != nil {
		return nil, fmt.Errorf("subscribe chat: %w", err)
	}
	return s, nil
}

// Self returns this session's player identity.
func (s *Session) Self() game.Player {
	return s.self
}

// Controller returns the orchestration layer for game operations.
func (s *Session) Controller() *controller.Controller {
	return s.controller
}

// Run replays the board log, then keeps the session synchronized until
// ctx is cancelled. With watch enabled, pushed records wake the poller
// for an immediate cycle instead of being delivered directly, so
// chronological delivery holds even when a push races a running cycle.
// Polling continues regardless; a dropped stream only costs latency.
func (s *Session) Run(ctx context.Context) {
	if s.watch {
		s.runWatch(ctx)
	}
	s.poller.Run(ctx)
}

func (s *Session) runWatch(ctx context.Context) {
	records, err := s.client.Watch(ctx)
	if err != nil {
		log.Printf("board watch unavailable, polling only: %v", err)
		return
	}
	go func() {
		for range records {
			s.poller.Wake()
		}
		if ctx.Err() == nil {
			log.Print("board watch stream closed, polling only")
		}
	}()
}

// AppendEnvelope encodes a typed body and appends it as this client.
func (s *Session) AppendEnvelope(ctx context.Context, kind message.Kind, body any) error {
	text, err := message.Encode(kind, body)
	if err != nil {
		return err
	}
	if _, err := s.client.AppendRecord(ctx, s.self.ID, text); err != nil {
		return err
	}
	return nil
}

// PublishGameInfo implements host.Publisher.
func (s *Session) PublishGameInfo(ctx context.Context, summary game.Summary) error {
	return s.AppendEnvelope(ctx, message.KindGameInfo, summary)
}

// PublishViewState implements host.Publisher.
func (s *Session) PublishViewState(ctx context.Context, gameID, playerID string, view json.RawMessage) error {
	return s.AppendEnvelope(ctx, message.KindViewState, message.ViewStateBody{
		GameID:    gameID,
		To:        playerID,
		ViewState: view,
	})
}

// BoardInfo returns the board's metadata (uptime, message count).
func (s *Session) BoardInfo(ctx context.Context) (client.Metadata, error) {
	return s.client.Metadata(ctx)
}

// SendChat appends a plain chat message under the configured user
// name. Chat is for humans, so a session without a name cannot chat.
func (s *Session) SendChat(ctx context.Context, text string) error {
	if s.self.Name == "" {
		return fmt.Errorf("PARLOR_USER_NAME is required to chat")
	}
	if _, err := s.client.AppendRecord(ctx, s.self.Name, text); err != nil {
		return err
	}
	return nil
}

// ChatMessages returns every plain chat message seen so far, oldest
// first.
func (s *Session) ChatMessages() []message.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]message.Record, len(s.chat))
	copy(out, s.chat)
	return out
}

func (s *Session) collectChat(dec message.Decoded) {
	if dec.Kind != message.KindPlain {
		return
	}
	s.mu.Lock()
	s.chat = append(s.chat, dec.Record)
	s.mu.Unlock()
}
