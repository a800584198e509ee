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

	"github.com/pfrederiksen/concert-server/internal/cache"
	"github.com/pfrederiksen/concert-server/internal/catalog"
	"github.com/pfrederiksen/concert-server/internal/config"
	"github.com/pfrederiksen/concert-server/internal/logger"
	"github.com/pfrederiksen/concert-server/internal/metrics"
	"github.com/pfrederiksen/concert-server/internal/scraper"
	"github.com/pfrederiksen/concert-server/internal/server"
	"github.com/pfrederiksen/concert-server/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, os.Stdout)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&flagPort, "port", config.DefaultPort, "Port to listen on (env: PORT)")
	cmd.Flags().StringVar(&flagSnapshotDir, "snapshot-dir", "", "Directory for cache snapshots; empty disables them (env: SNAPSHOT_DIR)")
	return cmd
}

// runServer serves until ctx is cancelled, then drains connections and
// persists the cache when a snapshot directory is configured.
func runServer(ctx context.Context, cfg config.Config) error {
	m := metrics.New()
	sc := scraper.New(scraper.Options{
		ListingURL:    cfg.Upstream.ListingURL,
		TicketOpenURL: cfg.Upstream.TicketOpenURL,
		Timeout:       cfg.Upstream.Timeout,
		Metrics:       m,
	})
	c := cache.New(cfg.Cache.TTL, m)

	var store *storage.Storage
	if cfg.Cache.SnapshotDir != "" {
		var err error
		store, err = storage.New(cfg.Cache.SnapshotDir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		n, err := store.Load(c)
		if err != nil {
			logger.Warn("Could not restore cache snapshot", logger.Fields{
				"path":  store.Path(),
				"error": err.Error(),
			})
		} else {
			logger.Info("Restored cache snapshot", logger.Fields{"path": store.Path(), "categories": n})
		}
	}

	svc := catalog.New(sc, c)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.New(svc, m).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", logger.Fields{
			"addr":      srv.Addr,
			"cache_ttl": cfg.Cache.TTL.String(),
			"version":   Version,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", nil, err)
	}

	if store != nil {
		if err := store.Save(c); err != nil {
			return fmt.Errorf("saving cache snapshot: %w", err)
		}
		logger.Info("Saved cache snapshot", logger.Fields{"path": store.Path(), "categories": c.Size()})
	}
	return nil
}
