package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/config"
	"github.com/hyperengineering/turtlesoup/internal/oracle"
	"github.com/hyperengineering/turtlesoup/internal/ratelimit"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "turtlesoup",
	Short:         "Turtle soup - AI-judged lateral thinking puzzles",
	Long:          "Pick an episode, ask yes/no questions, and uncover every clue behind the story.",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(episodesCmd)
}

// setupLogger installs the process-wide slog handler.
func setupLogger(w io.Writer, cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// core is the game machinery shared by serve and play.
type core struct {
	catalog *catalog.Catalog
	guard   *ratelimit.Guard
	oracle  *oracle.Dispatcher
	closer  io.Closer
}

func (c *core) Close() error {
	return c.closer.Close()
}

// buildCore loads the catalog and wires the limiter and oracle. An unusable
// oracle key is reported on diag but does not fail startup.
func buildCore(ctx context.Context, cfg *config.Config, diag io.Writer) (*core, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	slog.Info("catalog loaded",
		"component", "catalog",
		"episodes", cat.Len(),
		"path", cfg.Catalog.Path,
	)

	guard := ratelimit.NewGuard(ratelimit.Policy{
		SessionRequestCap: cfg.Limits.SessionRequestCap,
		MinuteRequestCap:  cfg.Limits.MinuteRequestCap,
		Window:            durationOf(cfg.Limits.Window),
	})

	dispatcher, closer, err := oracle.New(ctx, oracle.Settings{
		Provider: cfg.Oracle.Provider,
		Model:    cfg.Oracle.Model,
		APIKey:   cfg.Oracle.APIKey,
		Timeout:  durationOf(cfg.Oracle.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("init oracle: %w", err)
	}
	if !dispatcher.Available() {
		printKeyHelp(diag, cfg.Oracle.Provider)
	} else {
		slog.Info("oracle initialized",
			"component", "oracle",
			"provider", cfg.Oracle.Provider,
			"model", dispatcher.ModelName(),
		)
	}

	return &core{
		catalog: cat,
		guard:   guard,
		oracle:  dispatcher,
		closer:  closer,
	}, nil
}

// printKeyHelp explains how to supply the oracle key.
func printKeyHelp(w io.Writer, provider string) {
	envVar := oracle.KeyEnvVar(provider)
	prefix := oracle.KeyPrefix(provider)
	fmt.Fprintf(w, "⚠️  AI 서비스를 사용할 수 없습니다.\n")
	fmt.Fprintf(w, "   %s 환경 변수 또는 .env 파일에 API 키를 설정해주세요.\n", envVar)
	fmt.Fprintf(w, "   예: %s=%s...\n", envVar, prefix)
	fmt.Fprintf(w, "   에피소드 탐색과 힌트는 키 없이도 사용할 수 있습니다.\n")
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
		slog.Debug("worker goroutine exited", "worker", name)
	}()
}
