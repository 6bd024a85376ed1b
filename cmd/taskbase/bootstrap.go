package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/taskbase/taskbase/internal/channels"
	"github.com/taskbase/taskbase/internal/config"
	"github.com/taskbase/taskbase/internal/database"
	"github.com/taskbase/taskbase/internal/pgnotify"
	"github.com/taskbase/taskbase/internal/service"
	"github.com/taskbase/taskbase/internal/store"
)

// loadConfig reads --config. A missing default file falls back to TASKBASE_*
// variables only.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.LoadEnv()
	}
	return config.Load(path)
}

// setupLogger installs the configured logger. Commands that write results to
// stdout move stdout logging to stderr.
func setupLogger(cfg *config.Config, resultsOnStdout bool) (*slog.Logger, func() error, error) {
	logCfg := cfg.Logging
	if resultsOnStdout && logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	return config.InitLogger(logCfg)
}

// backend holds the connections shared by the database-backed commands.
type backend struct {
	pool  *pgxpool.Pool
	hub   *channels.Hub
	store *store.Store
	svc   *service.Service
}

// connectProducer opens the pool and a producer-only service.
func connectProducer(ctx context.Context, cfg *config.Config, namespaces []string, logger *slog.Logger) (*backend, error) {
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	st := store.New(pool)
	svc, err := service.NewProducer(ctx, st, namespaces, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &backend{pool: pool, store: st, svc: svc}, nil
}

// connectConsumer opens the pool, a dedicated listener and a service
// subscribed to namespaces.
func connectConsumer(ctx context.Context, cfg *config.Config, namespaces []string, logger *slog.Logger) (*backend, error) {
	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	hub := channels.NewHub(channels.HubConfig{BufferSize: cfg.Service.NotificationBuffer})
	listener, err := pgnotify.Connect(ctx, pool, hub, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	st := store.New(pool)
	svc, err := service.New(ctx, st, listener, namespaces, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backend{pool: pool, hub: hub, store: st, svc: svc}, nil
}

func (b *backend) Close(logger *slog.Logger) {
	if err := b.svc.Close(context.Background()); err != nil {
		logger.Warn("Failed to close service", "error", err)
	}
	b.pool.Close()
}
