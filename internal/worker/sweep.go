package worker

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper evicts idle game sessions.
type SessionSweeper interface {
	Sweep(ttl time.Duration) []string
	Exists(id string) bool
}

// LimitSweeper drops rate-limit records. A record outlives its session only
// as an orphan; a live session's lifetime count is never evicted.
type LimitSweeper interface {
	Forget(sessionID string) bool
	Sweep(idleTTL, blockedTTL time.Duration, live func(sessionID string) bool) int
}

// TranscriptPurger deletes the chat history of an evicted session.
type TranscriptPurger interface {
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

// ClientSweeper evicts idle per-client HTTP throttles.
type ClientSweeper interface {
	Sweep(ttl time.Duration) int
}

// SweepConfig holds the sweep cadence and retention windows.
type SweepConfig struct {
	Interval        time.Duration
	SessionIdleTTL  time.Duration
	LimitIdleTTL    time.Duration
	LimitBlockedTTL time.Duration
	ClientIdleTTL   time.Duration
}

// SweepWorker periodically evicts idle sessions and the state hanging off them.
type SweepWorker struct {
	cfg         SweepConfig
	sessions    SessionSweeper
	limits      LimitSweeper
	transcripts TranscriptPurger
	clients     ClientSweeper
}

// NewSweepWorker creates a sweeper. transcripts and clients may be nil.
func NewSweepWorker(cfg SweepConfig, sessions SessionSweeper, limits LimitSweeper, transcripts TranscriptPurger, clients ClientSweeper) *SweepWorker {
	return &SweepWorker{
		cfg:         cfg,
		sessions:    sessions,
		limits:      limits,
		transcripts: transcripts,
		clients:     clients,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// The first sweep happens one interval after start.
func (w *SweepWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "session-sweep",
		"interval", w.cfg.Interval.String(),
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "session-sweep",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// SweepResult counts what a single cycle removed.
type SweepResult struct {
	Sessions          int
	LimitRecords      int
	TranscriptEntries int64
	Clients           int
}

// Sweep executes a single eviction cycle.
func (w *SweepWorker) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	var res SweepResult

	evicted := w.sessions.Sweep(w.cfg.SessionIdleTTL)
	res.Sessions = len(evicted)
	for _, id := range evicted {
		if w.limits.Forget(id) {
			res.LimitRecords++
		}
	}

	if w.transcripts != nil {
		for _, id := range evicted {
			n, err := w.transcripts.DeleteSession(ctx, id)
			if err != nil {
				// Check for graceful shutdown
				if ctx.Err() != nil {
					return res
				}
				slog.Error("transcript purge failed",
					"component", "worker",
					"action", "transcript_purge_failed",
					"session_id", id,
					"error", err,
				)
				continue
			}
			res.TranscriptEntries += n
		}
	}

	res.LimitRecords += w.limits.Sweep(w.cfg.LimitIdleTTL, w.cfg.LimitBlockedTTL, w.sessions.Exists)

	if w.clients != nil && w.cfg.ClientIdleTTL > 0 {
		res.Clients = w.clients.Sweep(w.cfg.ClientIdleTTL)
	}

	slog.Info("sweep cycle completed",
		"component", "worker",
		"action", "sweep_complete",
		"sessions", res.Sessions,
		"limit_records", res.LimitRecords,
		"transcript_entries", res.TranscriptEntries,
		"clients", res.Clients,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}
