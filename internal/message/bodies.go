package message

import (
	"encoding/json"

	"github.com/parlorgames/parlor/internal/game"
)

// JoinRequestBody asks the host of GameID to admit Player.
type JoinRequestBody struct {
	GameID string      `json:"gameId"`
	Player game.Player `json:"player"`
}

// ViewStateBody delivers one player's view of a game. Only the client
// whose identity matches To consumes it.
type ViewStateBody struct {
	GameID    string          `json:"gameId"`
	To        string          `json:"to"`
	ViewState json.RawMessage `json:"viewState"`
}

// PlayerActionBody carries a player's move to the host of GameID.
type PlayerActionBody struct {
	GameID string          `json:"gameId"`
	Player game.Player     `json:"player"`
	Action json.RawMessage `json:"action"`
}
