// Package game defines the shared vocabulary for games coordinated over
// the message board: settings, players, lifecycle status, and the
// summary record other clients project from published updates.
package game

import "encoding/json"

// Status identifies where a game is in its lifecycle. Transitions are
// monotonic: Preparing -> Playing -> Finished, or Preparing -> Aborted.
type Status string

const (
	// StatusPreparing indicates the game is gathering players.
	StatusPreparing Status = "preparing"
	// StatusPlaying indicates the game has started.
	StatusPlaying Status = "playing"
	// StatusFinished indicates the game completed normally.
	StatusFinished Status = "finished"
	// StatusAborted indicates the game was abandoned before starting.
	StatusAborted Status = "aborted"
)

// Live reports whether the game is still joinable or in progress.
func (s Status) Live() bool {
	return s == StatusPreparing || s == StatusPlaying
}

// Settings configures a new game.
type Settings struct {
	TitleID    string          `json:"gameTitleId"`
	MinPlayers int             `json:"minPlayers"`
	MaxPlayers int             `json:"maxPlayers"`
	Options    json.RawMessage `json:"options,omitempty"`
}

// Player identifies one participant in a game. PublicKey is reserved for
// per-player view encryption, which is not implemented yet.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	PublicKey []byte `json:"publicKey,omitempty"`
}

// Summary is the public projection of a game: everything non-host
// clients ever learn about it. The host republishes one on every
// lifecycle change.
type Summary struct {
	ID       string   `json:"id"`
	Settings Settings `json:"settings"`
	Status   Status   `json:"status"`
	Players  []Player `json:"players"`
}

// HasPlayer reports whether the player is part of the game.
func (s Summary) HasPlayer(playerID string) bool {
	for _, p := range s.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}
