package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSettings indicates malformed game settings.
	ErrInvalidSettings = errors.New("invalid game settings")
	// ErrNotHost indicates a host-only operation attempted by a non-owner.
	ErrNotHost = errors.New("not the host of this game")
	// ErrInvalidState indicates an operation attempted in the wrong
	// lifecycle state.
	ErrInvalidState = errors.New("game is in the wrong state")
	// ErrUnknownGame indicates a game id with no local record.
	ErrUnknownGame = errors.New("unknown game id")
)

// ValidateSettings checks settings before a game is created.
func ValidateSettings(s Settings) error {
	if s.TitleID == "" {
		return fmt.Errorf("%w: title id is required", ErrInvalidSettings)
	}
	if s.MinPlayers < 1 {
		return fmt.Errorf("%w: min players must be at least 1, got %d", ErrInvalidSettings, s.MinPlayers)
	}
	if s.MinPlayers > s.MaxPlayers {
		return fmt.Errorf("%w: min players %d exceeds max players %d", ErrInvalidSettings, s.MinPlayers, s.MaxPlayers)
	}
	return nil
}
