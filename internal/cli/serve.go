package cli

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

	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/internal/server"
	"github.com/me/schedsim/internal/store"
)

func newServeCmd() *cobra.Command {
	cfg := config.DefaultServerConfig()
	var parallel int
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.LogLevel, cfg.LogFormat, cfg.DBPath = flagLogLevel, flagLogFormat, flagDB

			var st store.Store
			if !noHistory {
				sqlite, err := openStore(context.Background())
				if err != nil {
					return err
				}
				defer sqlite.Close()
				st = sqlite
			}

			defaults := config.LoadSimConfig(flagConfig, logger)
			logger.Info("simulation defaults", "config", defaults.String())

			srv := server.New(cfg, st, logger, server.WithSimDefaults(defaults), server.WithParallel(parallel))
			httpServer := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Graceful shutdown
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting", "addr", cfg.Addr, "history", st != nil)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
			}
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Policies run concurrently per request")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not open the history database")
	return cmd
}
