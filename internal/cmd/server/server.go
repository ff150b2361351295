// Package server parses board server flags and runs the board HTTP
// service.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/parlorgames/parlor/internal/board"
	"github.com/parlorgames/parlor/internal/board/api"
	"github.com/parlorgames/parlor/internal/board/memory"
	"github.com/parlorgames/parlor/internal/board/sqlite"
	entrypoint "github.com/parlorgames/parlor/internal/platform/cmd"
)

const shutdownTimeout = 5 * time.Second

// Config holds board server configuration.
type Config struct {
	HTTPAddr string `env:"PARLOR_BOARD_HTTP_ADDR" envDefault:":8087"`
	DBPath   string `env:"PARLOR_BOARD_DB_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "board HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path (empty keeps messages in memory)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// OpenStore selects the message store for cfg: SQLite when a database
// path is configured, in-memory otherwise.
func OpenStore(cfg Config) (board.MessageStore, error) {
	if cfg.DBPath == "" {
		return memory.New(), nil
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open board store: %w", err)
	}
	return store, nil
}

// Run serves the board until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBoard, func(ctx context.Context) error {
		store, err := OpenStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close board store: %v", err)
			}
		}()

		handler := api.NewHandler(store)
		srv := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: otelhttp.NewHandler(handler.Routes(), "board"),
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("board listening on %s", cfg.HTTPAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown board: %w", err)
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve board: %w", err)
		}
	})
}
