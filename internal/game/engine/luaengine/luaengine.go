// Package luaengine adapts a Lua script into a game engine, so new
// titles can be added without recompiling. A script implements the
// engine contract with three global functions:
//
//	init(playersJSON, optionsJSON)  -- optional, called once at construction
//	start() -> resultJSON           -- begin the game
//	update(actionsJSON) -> resultJSON
//
// resultJSON matches the engine.UpdateResult wire shape. Each engine
// instance runs its own interpreter state; the host orchestrator
// serializes calls per game.
package luaengine

import (
	"encoding/json"
	"fmt"

	"github.com/Shopify/go-lua"
	"github.com/parlorgames/parlor/internal/game/engine"
)

// Engine drives one Lua interpreter holding one game instance.
type Engine struct {
	state *lua.State
}

// NewConstructor returns an engine constructor for the given script
// source. The script is loaded once per game instance.
func NewConstructor(source string) engine.Constructor {
	return func(playerIDs []string, options json.RawMessage) (engine.Engine, error) {
		l := lua.NewState()
		lua.OpenLibraries(l)

		if err := lua.DoString(l, source); err != nil {
			return nil, fmt.Errorf("load engine script: %w", err)
		}
		for _, name := range []string{"start", "update"} {
			l.Global(name)
			isFunc := l.TypeOf(-1) == lua.TypeFunction
			l.Pop(1)
			if !isFunc {
				return nil, fmt.Errorf("engine script must define function %q", name)
			}
		}

		players, err := json.Marshal(playerIDs)
		if err != nil {
			return nil, fmt.Errorf("marshal player ids: %w", err)
		}
		opts := options
		if len(opts) == 0 {
			opts = json.RawMessage("null")
		}

		l.Global("init")
		if l.TypeOf(-1) == lua.TypeFunction {
			l.PushString(string(players))
			l.PushString(string(opts))
			if err := l.ProtectedCall(2, 0, 0); err != nil {
				return nil, fmt.Errorf("run engine init: %w", err)
			}
		} else {
			l.Pop(1)
		}

		return &Engine{state: l}, nil
	}
}

// Start begins the game.
func (e *Engine) Start() (engine.UpdateResult, error) {
	return e.call("start")
}

// Update applies player actions.
func (e *Engine) Update(actions []engine.PlayerData) (engine.UpdateResult, error) {
	payload, err := json.Marshal(actions)
	if err != nil {
		return engine.UpdateResult{}, fmt.Errorf("marshal actions: %w", err)
	}
	return e.call("update", string(payload))
}

func (e *Engine) call(name string, args ...string) (engine.UpdateResult, error) {
	e.state.Global(name)
	for _, arg := range args {
		e.state.PushString(arg)
	}
	if err := e.state.ProtectedCall(len(args), 1, 0); err != nil {
		return engine.UpdateResult{}, fmt.Errorf("run engine %s: %w", name, err)
	}

	raw, ok := e.state.ToString(-1)
	e.state.Pop(1)
	if !ok {
		return engine.UpdateResult{}, fmt.Errorf("engine %s must return a JSON string", name)
	}

	var result engine.UpdateResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return engine.UpdateResult{}, fmt.Errorf("decode engine %s result: %w", name, err)
	}
	return result, nil
}
