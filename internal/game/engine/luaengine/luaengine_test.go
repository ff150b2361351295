package luaengine

import (
	"encoding/json"
	"testing"

	"github.com/parlorgames/parlor/internal/game/engine"
)

// countdownScript is a trivial two-call game: start deals every player
// a ready view, the first update finishes the game.
const countdownScript = `
players_json = nil

function init(players, options)
  players_json = players
end

function start()
  return '{"isFinished": false, "playerViewStates": [' ..
    '{"playerId": "p1", "data": {"ready": true}},' ..
    '{"playerId": "p2", "data": {"ready": true}}]}'
end

function update(actions)
  return '{"isFinished": true, "playerViewStates": [' ..
    '{"playerId": "p1", "data": {"done": true}},' ..
    '{"playerId": "p2", "data": {"done": true}}]}'
end
`

func newCountdown(t *testing.T) engine.Engine {
	t.Helper()
	ctor := NewConstructor(countdownScript)
	eng, err := ctor([]string{"p1", "p2"}, nil)
	if err != nil {
		t.Fatalf("construct lua engine: %v", err)
	}
	return eng
}

func TestScriptedStartAndUpdate(t *testing.T) {
	eng := newCountdown(t)

	result, err := eng.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Finished {
		t.Fatal("expected unfinished game after start")
	}
	if len(result.PlayerViews) != 2 {
		t.Fatalf("expected 2 views, got %d", len(result.PlayerViews))
	}
	if result.PlayerViews[0].PlayerID != "p1" {
		t.Fatalf("unexpected first view %+v", result.PlayerViews[0])
	}

	action, _ := json.Marshal(map[string]string{"move": "pass"})
	result, err = eng.Update([]engine.PlayerData{{PlayerID: "p1", Data: action}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !result.Finished {
		t.Fatal("expected finished game after update")
	}
}

func TestScriptMustDefineContractFunctions(t *testing.T) {
	ctor := NewConstructor(`function start() return "{}" end`)
	if _, err := ctor([]string{"p1"}, nil); err == nil {
		t.Fatal("expected error for missing update function")
	}
}

func TestScriptLoadErrors(t *testing.T) {
	ctor := NewConstructor(`this is not lua`)
	if _, err := ctor([]string{"p1"}, nil); err == nil {
		t.Fatal("expected load error")
	}
}

func TestMalformedResultRejected(t *testing.T) {
	ctor := NewConstructor(`
function start() return "{broken" end
function update(actions) return "{}" end
`)
	eng, err := ctor([]string{"p1"}, nil)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if _, err := eng.Start(); err == nil {
		t.Fatal("expected decode error")
	}
}
