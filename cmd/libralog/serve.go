package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scaleworks/libralog/internal/config"
	"github.com/scaleworks/libralog/internal/events"
	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/monitor"
	"github.com/scaleworks/libralog/internal/server"
	"github.com/scaleworks/libralog/internal/snapshot"
	"github.com/scaleworks/libralog/internal/store/postgres"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the monitor and API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("event bus enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("event bus disabled (LIBRA_NATS_URL not set)")
		}

		// Wire the monitor first so the server can report its cursor.
		mon := monitor.New(store, cfg.PollInterval, logger)
		logServer := server.New(store, publisher, cfg.Devices, mon.LastSeen, logger)

		mon.Register(logServer.ObserveBatch)
		mon.Register(func(_ context.Context, batch []*model.Event) {
			for _, e := range batch {
				logger.Info("event detected",
					"sequence", e.Sequence,
					"device_id", e.DeviceID,
					"action", e.Action,
					"amount", e.Amount,
					"ingredient", e.Ingredient,
				)
			}
		})
		mon.Start()

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: logServer.NewHTTPHandler(),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the snapshot scheduler if any destinations are configured.
		var scheduler *snapshot.Scheduler
		if cfg.SnapshotInterval > 0 {
			var dests []snapshot.Destination

			if cfg.SnapshotS3Bucket != "" {
				s3Dest, err := snapshot.NewS3Destination(
					context.Background(),
					cfg.SnapshotS3Bucket,
					cfg.SnapshotS3Key,
					cfg.SnapshotS3Region,
					cfg.SnapshotS3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 snapshot destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("snapshot S3 destination enabled",
						"bucket", cfg.SnapshotS3Bucket, "key", cfg.SnapshotS3Key)
				}
			}

			if cfg.SnapshotFile != "" {
				dests = append(dests, snapshot.NewFileDestination(cfg.SnapshotFile))
				logger.Info("snapshot file destination enabled", "path", cfg.SnapshotFile)
			}

			if len(dests) > 0 {
				scheduler = snapshot.NewScheduler(store, dests, cfg.SnapshotInterval, cfg.SnapshotWindow, logger)
				scheduler.Start()
				logger.Info("snapshot scheduler started", "interval", cfg.SnapshotInterval)
			}
		}

		logger.Info("libralog server started",
			"http_addr", cfg.HTTPAddr,
			"poll_interval", cfg.PollInterval,
			"devices", cfg.Devices,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("snapshot scheduler stopped")
		}

		mon.Stop()
		logger.Info("monitor stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
