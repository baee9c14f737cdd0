package worker

import (
	"context"
	"log/slog"
	"time"
)

// Snapshotter writes a consistent copy of the transcript database.
type Snapshotter interface {
	Snapshot(ctx context.Context, dest string) error
}

// SnapshotUploader ships a snapshot file to remote storage.
type SnapshotUploader interface {
	Upload(ctx context.Context, objectName, filePath string) error
}

// BackupWorker periodically snapshots the transcript database and uploads it.
type BackupWorker struct {
	store    Snapshotter
	uploader SnapshotUploader
	path     string
	object   string
	interval time.Duration
}

// NewBackupWorker creates a worker that snapshots to path and uploads the
// file as object every interval.
func NewBackupWorker(store Snapshotter, uploader SnapshotUploader, path, object string, interval time.Duration) *BackupWorker {
	return &BackupWorker{
		store:    store,
		uploader: uploader,
		path:     path,
		object:   object,
		interval: interval,
	}
}

// Run starts the worker loop. Takes a backup immediately on start,
// then every interval. Blocks until ctx is cancelled.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "transcript-backup",
		"interval", w.interval.String(),
	)

	w.backup(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "transcript-backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.backup(ctx)
		}
	}
}

// Backup takes one snapshot and uploads it.
func (w *BackupWorker) Backup(ctx context.Context) error {
	start := time.Now()

	if err := w.store.Snapshot(ctx, w.path); err != nil {
		return err
	}
	if err := w.uploader.Upload(ctx, w.object, w.path); err != nil {
		return err
	}

	slog.Info("transcript backup completed",
		"component", "worker",
		"action", "backup_complete",
		"path", w.path,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// backup runs Backup and logs any failure.
func (w *BackupWorker) backup(ctx context.Context) {
	if err := w.Backup(ctx); err != nil {
		// Check for graceful shutdown
		if ctx.Err() != nil {
			return
		}
		slog.Warn("transcript backup failed",
			"component", "worker",
			"action", "backup_failed",
			"error", err,
		)
	}
}
