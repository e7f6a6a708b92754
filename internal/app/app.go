// Package app wires configuration, the profile registry, the session
// store and the HTTP server into one runnable unit.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"marginscope/internal/analysis"
	"marginscope/internal/config"
	"marginscope/internal/logger"
	"marginscope/internal/signal"
	"marginscope/internal/store"
	analysishttp "marginscope/internal/transport/http"
)

type App struct {
	cfg    *config.Config
	server *analysishttp.Server
}

// NewApp builds the application from config without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	registry, err := signal.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("building profile registry failed: %w", err)
	}
	if path := cfg.Profiles.Path; path != "" {
		if err := registry.WatchFile(path); err != nil {
			return nil, fmt.Errorf("loading custom profiles failed: %w", err)
		}
	}

	st, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return nil, err
	}

	svc := analysis.NewService(registry, st)
	server, err := analysishttp.NewServer(analysishttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Service:  svc,
		Defaults: cfg.Analysis,
		Input:    cfg.Input,
	})
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, server: server}, nil
}

// Run starts the HTTP server and blocks until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.Infof("serving on %s (env=%s)", a.cfg.App.HTTPAddr, a.cfg.App.Env)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}
