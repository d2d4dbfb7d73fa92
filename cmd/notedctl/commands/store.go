// Package commands holds the notedctl subcommands.
package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/config"
	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/storage"
	"github.com/noted-app/noted-api/internal/storage/diskv"
	"github.com/noted-app/noted-api/internal/storage/postgres"
)

// openEngine loads config, opens the configured backend, and returns a
// loaded engine. The caller closes the store.
func openEngine(ctx context.Context) (*engine.Engine, storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var store storage.Store
	if cfg.UsePostgres() {
		store, err = postgres.Open(ctx, cfg.DatabaseURL, zap.NewNop())
	} else {
		store, err = diskv.Open(cfg.DataDir, zap.NewNop())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	eng := engine.New(store, zap.NewNop())
	if err := eng.Load(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}
	return eng, store, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
