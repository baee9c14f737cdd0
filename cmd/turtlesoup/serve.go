package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/turtlesoup/internal/api"
	"github.com/hyperengineering/turtlesoup/internal/backup"
	"github.com/hyperengineering/turtlesoup/internal/config"
	"github.com/hyperengineering/turtlesoup/internal/game"
	"github.com/hyperengineering/turtlesoup/internal/session"
	"github.com/hyperengineering/turtlesoup/internal/transcript"
	"github.com/hyperengineering/turtlesoup/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP game server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func durationOf(d config.Duration) time.Duration {
	return time.Duration(d)
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	setupLogger(os.Stdout, cfg.Log)
	slog.Info("configuration loaded",
		"level", cfg.Log.Level,
		"provider", cfg.Oracle.Provider,
	)

	// 4. Game core: catalog, limiter, oracle
	c, err := buildCore(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer c.Close()

	// 5. Transcript store (optional)
	var ts transcript.Store
	var sqliteStore *transcript.SQLiteStore
	if cfg.Transcript.Path != "" {
		sqliteStore, err = transcript.NewSQLiteStore(cfg.Transcript.Path)
		if err != nil {
			return err
		}
		ts = sqliteStore
	} else {
		slog.Info("transcript persistence disabled", "component", "transcript")
	}

	var backups *worker.BackupWorker
	if sqliteStore != nil && cfg.Backup.Interval > 0 {
		uploader, err := backup.NewUploader(cfg.Backup)
		if err != nil {
			sqliteStore.Close()
			return err
		}
		backups = worker.NewBackupWorker(sqliteStore, uploader,
			cfg.Backup.Path, backup.CurrentObject, durationOf(cfg.Backup.Interval))
	}

	// 6. Session registry
	sessions := session.NewManager(func() *game.Session {
		return game.NewSession(c.catalog, c.oracle, c.guard)
	})

	// 7. HTTP router
	throttle := api.NewClientThrottle(cfg.HTTP.RPS, cfg.HTTP.Burst)
	handler := api.NewHandler(c.catalog, c.guard, c.oracle, sessions, ts, Version)
	router := api.NewRouter(handler, throttle, cfg.HTTP.TrustProxy)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  durationOf(cfg.Server.ReadTimeout),
		WriteTimeout: durationOf(cfg.Server.WriteTimeout),
	}

	// 8. Workers
	var wg sync.WaitGroup
	var purger worker.TranscriptPurger
	if sqliteStore != nil {
		purger = sqliteStore
	}
	sweeper := worker.NewSweepWorker(worker.SweepConfig{
		Interval:        durationOf(cfg.Sessions.SweepInterval),
		SessionIdleTTL:  durationOf(cfg.Sessions.IdleTTL),
		LimitIdleTTL:    durationOf(cfg.Limits.IdleTTL),
		LimitBlockedTTL: durationOf(cfg.Limits.BlockedTTL),
		ClientIdleTTL:   durationOf(cfg.Sessions.SweepInterval),
	}, sessions, c.guard, purger, throttle)
	startWorker(ctx, &wg, "session-sweep", sweeper.Run)

	if backups != nil {
		startWorker(ctx, &wg, "transcript-backup", backups.Run)
	}

	// 9. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 10. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 11. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		durationOf(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if sqliteStore != nil {
		if err := sqliteStore.Close(); err != nil {
			slog.Error("transcript store close error", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}
