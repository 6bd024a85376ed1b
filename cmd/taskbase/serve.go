package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/taskbase/taskbase/internal/api"
	"github.com/taskbase/taskbase/internal/auth"
	"github.com/taskbase/taskbase/internal/service"
	"github.com/taskbase/taskbase/internal/store"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the producer HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			inMemory, _ := cmd.Flags().GetBool("memory")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, closeLog, err := setupLogger(cfg, false)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			deps := api.Dependencies{Logger: logger}
			if cfg.Auth.Enabled() {
				deps.Auth, err = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry())
				if err != nil {
					return fmt.Errorf("failed to initialize auth service: %w", err)
				}
			} else {
				logger.Warn("API authentication disabled; set auth.jwt_secret to enable it")
			}

			if inMemory {
				mem := store.NewMemory()
				svc, err := service.NewProducer(ctx, mem, cfg.Service.Namespaces, logger)
				if err != nil {
					return err
				}
				deps.Tasks, deps.Store = svc, mem
				logger.Warn("Serving from the in-memory store; tasks are lost on exit")
			} else {
				be, err := connectProducer(ctx, cfg, cfg.Service.Namespaces, logger)
				if err != nil {
					return err
				}
				defer be.Close(logger)
				deps.Tasks, deps.Store = be.svc, be.store
			}

			srv := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      api.NewRouter(deps),
				ReadTimeout:  cfg.Server.ReadTimeout(),
				WriteTimeout: cfg.Server.WriteTimeout(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down server...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", "error", err)
			}

			logger.Info("Server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().Bool("memory", false, "Use the in-memory store instead of PostgreSQL (development only)")
	return cmd
}
