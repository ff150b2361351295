// Package message defines the board record wire type and the typed
// envelope codec multiplexed over its text field.
//
// A record whose text starts with the rich-message marker carries a
// JSON envelope with a kind and a kind-specific body. Anything else is
// plain chat text. Decoding is total: malformed envelopes degrade to
// plain messages rather than failing.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Marker prefixes record text that carries a typed envelope.
const Marker = "\x01"

// Record is one entry in the board's append-only log. The board stamps
// ID, When, and From on append; records are immutable afterwards.
type Record struct {
	ID   string `json:"id"`
	When int64  `json:"when"`
	From string `json:"from"`
	Text string `json:"message"`
}

// Time returns the record timestamp.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.When).UTC()
}

// Kind identifies the type of a typed envelope.
type Kind string

const (
	// KindPlain is chat text with no envelope.
	KindPlain Kind = "plain"
	// KindGameInfo broadcasts a game summary update.
	KindGameInfo Kind = "game_info"
	// KindJoinRequest asks a game's host to admit a player.
	KindJoinRequest Kind = "join_request"
	// KindViewState delivers one player's view of a game's state.
	KindViewState Kind = "view_state"
	// KindPlayerAction carries a player's move to a game's host.
	KindPlayerAction Kind = "player_action"
)

type envelope struct {
	Kind Kind            `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// Decoded is a record with its envelope unwrapped. For plain messages
// Body is nil and the chat text stays in Record.Text.
type Decoded struct {
	Record
	Kind Kind
	Body json.RawMessage
}

// Encode wraps a typed body into record text behind the marker.
func Encode(kind Kind, body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal %s body: %w", kind, err)
	}
	text, err := json.Marshal(envelope{Kind: kind, Body: raw})
	if err != nil {
		return "", fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	return Marker + string(text), nil
}

// Decode unwraps a record's envelope. It never fails: records without
// the marker, or with an unparseable envelope, decode as plain text.
func Decode(rec Record) Decoded {
	if !strings.HasPrefix(rec.Text, Marker) {
		return Decoded{Record: rec, Kind: KindPlain}
	}

	var env envelope
	if err := json.Unmarshal([]byte(strings.TrimPrefix(rec.Text, Marker)), &env); err != nil || env.Kind == "" {
		return Decoded{Record: rec, Kind: KindPlain}
	}
	return Decoded{Record: rec, Kind: env.Kind, Body: env.Body}
}
