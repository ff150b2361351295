// Package play parses game client flags and runs the console client.
package play

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/game/engine"
	"github.com/parlorgames/parlor/internal/game/engine/luaengine"
	"github.com/parlorgames/parlor/internal/game/engine/tictactoe"
	entrypoint "github.com/parlorgames/parlor/internal/platform/cmd"
	"github.com/parlorgames/parlor/internal/session"
)

// Config holds game client configuration.
type Config struct {
	BoardURL     string        `env:"PARLOR_BOARD_URL" envDefault:"http://localhost:8087"`
	UserName     string        `env:"PARLOR_USER_NAME"`
	PollInterval time.Duration `env:"PARLOR_POLL_INTERVAL" envDefault:"1s"`
	Watch        bool          `env:"PARLOR_BOARD_WATCH"`
	LuaScript    string        `env:"PARLOR_LUA_SCRIPT"`
	LuaTitle     string        `env:"PARLOR_LUA_TITLE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.BoardURL, "board-url", cfg.BoardURL, "message board base URL")
	fs.StringVar(&cfg.UserName, "name", cfg.UserName, "display name for chat and games")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "board polling interval")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "stream board records over websocket in addition to polling")
	fs.StringVar(&cfg.LuaScript, "lua-script", cfg.LuaScript, "path to a Lua engine script to register")
	fs.StringVar(&cfg.LuaTitle, "lua-title", cfg.LuaTitle, "title id for the Lua engine script")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewRegistry builds the engine registry for cfg: tic-tac-toe always,
// plus the configured Lua script when one is given.
func NewRegistry(cfg Config) (*engine.Registry, error) {
	registry := engine.NewRegistry()
	if err := registry.Register(tictactoe.TitleID, tictactoe.Constructor); err != nil {
		return nil, err
	}

	if cfg.LuaScript != "" {
		if cfg.LuaTitle == "" {
			return nil, fmt.Errorf("lua title is required with a lua script")
		}
		source, err := os.ReadFile(cfg.LuaScript)
		if err != nil {
			return nil, fmt.Errorf("read lua script: %w", err)
		}
		if err := registry.Register(cfg.LuaTitle, luaengine.NewConstructor(string(source))); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Run connects the client to the board and drives the console until
// ctx is cancelled or stdin closes.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePlay, func(ctx context.Context) error {
		registry, err := NewRegistry(cfg)
		if err != nil {
			return err
		}

		sess, err := session.New(session.Config{
			BoardURL:     cfg.BoardURL,
			UserName:     cfg.UserName,
			PollInterval: cfg.PollInterval,
			Watch:        cfg.Watch,
		}, registry)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go sess.Run(ctx)

		return RunConsole(ctx, sess, os.Stdin, os.Stdout)
	})
}

// RunConsole reads commands from in and writes responses to out. It
// returns when in is exhausted or ctx is cancelled.
func RunConsole(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "connected as %s (%s)\n", sess.Self().Name, sess.Self().ID)

	var lastGameID string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "help":
			fmt.Fprint(out, consoleHelp)
		case "games":
			printGames(out, sess)
		case "server":
			meta, err := sess.BoardInfo(ctx)
			if err != nil {
				fmt.Fprintf(out, "server: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "up since %s, %d messages\n", meta.UpSince, meta.MessageCount)
		case "create":
			lastGameID = createGame(ctx, out, sess, rest)
		case "join":
			if rest == "" {
				fmt.Fprintln(out, "usage: join <game-id>")
				continue
			}
			if err := sess.Controller().JoinGame(ctx, rest); err != nil {
				fmt.Fprintf(out, "join: %v\n", err)
				continue
			}
			lastGameID = rest
			fmt.Fprintln(out, "join requested")
		case "start":
			gameID := currentGameID(sess, lastGameID, rest)
			if err := sess.Controller().StartGame(ctx, gameID); err != nil {
				fmt.Fprintf(out, "start: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "game started")
		case "view":
			gameID := currentGameID(sess, lastGameID, rest)
			state, err := sess.Controller().Game(gameID).State()
			if err != nil {
				fmt.Fprintf(out, "view: %v\n", err)
				continue
			}
			fmt.Fprintln(out, string(state))
		case "move":
			gameID := currentGameID(sess, lastGameID, "")
			if !json.Valid([]byte(rest)) {
				fmt.Fprintln(out, "usage: move <action-json>")
				continue
			}
			if err := sess.Controller().Game(gameID).SubmitAction(ctx, json.RawMessage(rest)); err != nil {
				fmt.Fprintf(out, "move: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "move sent")
		case "chat":
			if err := sess.SendChat(ctx, rest); err != nil {
				fmt.Fprintf(out, "chat: %v\n", err)
			}
		case "history":
			for _, rec := range sess.ChatMessages() {
				fmt.Fprintf(out, "%s: %s\n", rec.From, rec.Text)
			}
		case "quit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q (try help)\n", cmd)
		}
	}
	return scanner.Err()
}

const consoleHelp = `commands:
  games                 list known games
  server                show board uptime and message count
  create <title> [min max]  create and host a game
  join <game-id>        request to join a game
  start [game-id]       start a hosted game
  view [game-id]        show your view of a game
  move <action-json>    submit an action
  chat <text>           send a chat message
  history               show chat history
  quit
`

func printGames(out io.Writer, sess *session.Session) {
	games := sess.Controller().Games()
	if len(games) == 0 {
		fmt.Fprintln(out, "no games yet")
		return
	}
	for _, g := range games {
		fmt.Fprintf(out, "%s  %s  %s  %d/%d players\n",
			g.ID, g.Settings.TitleID, g.Status, len(g.Players), g.Settings.MaxPlayers)
	}
}

func createGame(ctx context.Context, out io.Writer, sess *session.Session, rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		fmt.Fprintln(out, "usage: create <title> [min max]")
		return ""
	}

	settings := game.Settings{TitleID: fields[0], MinPlayers: 2, MaxPlayers: 2}
	if len(fields) == 3 {
		if _, err := fmt.Sscanf(fields[1]+" "+fields[2], "%d %d", &settings.MinPlayers, &settings.MaxPlayers); err != nil {
			fmt.Fprintln(out, "usage: create <title> [min max]")
			return ""
		}
	}

	gameID, err := sess.Controller().CreateGame(ctx, settings)
	if err != nil {
		fmt.Fprintf(out, "create: %v\n", err)
		return ""
	}
	fmt.Fprintf(out, "created game %s\n", gameID)
	return gameID
}

// currentGameID picks the game to act on: an explicit argument wins,
// then the last game created or joined here, then the directory's idea
// of our current game.
func currentGameID(sess *session.Session, lastGameID, arg string) string {
	if arg != "" {
		return arg
	}
	if lastGameID != "" {
		return lastGameID
	}
	if current, ok := sess.Controller().CurrentGame(); ok {
		return current.ID
	}
	return ""
}
