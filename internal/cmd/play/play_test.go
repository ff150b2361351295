package play

import (
	"context"
	"flag"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parlorgames/parlor/internal/board/api"
	"github.com/parlorgames/parlor/internal/board/memory"
	"github.com/parlorgames/parlor/internal/game/engine/tictactoe"
	"github.com/parlorgames/parlor/internal/session"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.BoardURL != "http://localhost:8087" {
		t.Errorf("BoardURL = %q", cfg.BoardURL)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %s", cfg.PollInterval)
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-board-url", "http://example:9000", "-name", "Ana", "-watch"})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.BoardURL != "http://example:9000" || cfg.UserName != "Ana" || !cfg.Watch {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	titles := registry.Titles()
	if len(titles) != 1 || titles[0] != tictactoe.TitleID {
		t.Fatalf("titles = %v", titles)
	}
}

func TestNewRegistryWithLuaScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "game.lua")
	source := `
function start()
  return '{"isFinished": false, "playerViewStates": []}'
end
function update(actions)
  return '{"isFinished": true, "playerViewStates": []}'
end
`
	if err := os.WriteFile(script, []byte(source), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	registry, err := NewRegistry(Config{LuaScript: script, LuaTitle: "Countdown"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	titles := registry.Titles()
	if len(titles) != 2 {
		t.Fatalf("titles = %v", titles)
	}

	// A script without a title id is a config mistake.
	if _, err := NewRegistry(Config{LuaScript: script}); err == nil {
		t.Fatal("expected error without lua title")
	}
}

func TestRunConsole(t *testing.T) {
	srv := httptest.NewServer(api.NewHandler(memory.New()).Routes())
	defer srv.Close()

	registry, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	sess, err := session.New(session.Config{
		BoardURL:     srv.URL,
		UserName:     "Ana",
		PollInterval: time.Second,
	}, registry)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	in := strings.NewReader("games\nserver\ncreate TicTacToe\nchat hello\nbogus\nquit\n")
	var out strings.Builder
	if err := RunConsole(context.Background(), sess, in, &out); err != nil {
		t.Fatalf("RunConsole: %v", err)
	}

	output := out.String()
	for _, want := range []string{"no games yet", "up since ", "created game ", "unknown command"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}
