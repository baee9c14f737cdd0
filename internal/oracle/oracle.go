// Package oracle dispatches judgment prompts to an external language-model
// backend and classifies its responses.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
)

var (
	// ErrConfiguration indicates a missing or malformed oracle credential.
	ErrConfiguration = errors.New("oracle configuration error")
	// ErrUnavailable indicates the oracle cannot be used (bad credential or timeout).
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrCallFailed indicates a transient failure talking to the oracle.
	ErrCallFailed = errors.New("oracle call failed")
)

// DefaultTimeout bounds a single oracle round-trip.
const DefaultTimeout = 30 * time.Second

// Oracle is a language-model backend able to answer a prompt.
type Oracle interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	ModelName() string
}

// Dispatcher builds prompts, bounds oracle calls with a timeout, and
// normalizes failures into the package's sentinel errors.
type Dispatcher struct {
	oracle  Oracle
	timeout time.Duration
	reason  string
}

// NewDispatcher wraps an available oracle. A non-positive timeout uses DefaultTimeout.
func NewDispatcher(o Oracle, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{oracle: o, timeout: timeout}
}

// Unavailable returns a dispatcher whose every call fails with ErrUnavailable.
// reason is shown to players.
func Unavailable(reason string) *Dispatcher {
	return &Dispatcher{reason: reason}
}

// Available reports whether judgment calls can be made.
func (d *Dispatcher) Available() bool {
	return d.oracle != nil
}

// UnavailableMessage is the fixed player-facing text for an unusable oracle.
func (d *Dispatcher) UnavailableMessage() string {
	reason := d.reason
	if reason == "" {
		reason = "응답 시간이 초과되었습니다"
	}
	return fmt.Sprintf("🚫 AI 서비스를 사용할 수 없습니다: %s", reason)
}

// ModelName returns the backend model, or "" when unavailable.
func (d *Dispatcher) ModelName() string {
	if d.oracle == nil {
		return ""
	}
	return d.oracle.ModelName()
}

// Judge asks the oracle to judge input against ep and returns its raw text.
// A timeout is reported as ErrUnavailable; any other backend failure as ErrCallFailed.
func (d *Dispatcher) Judge(ctx context.Context, ep catalog.Episode, input string) (string, error) {
	if d.oracle == nil {
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	text, err := d.oracle.Complete(ctx, BuildPrompt(ep, input))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("oracle timed out",
				"component", "oracle",
				"action", "judge_timeout",
				"episode", ep.Title,
				"timeout", d.timeout.String(),
			)
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		slog.Error("oracle call failed",
			"component", "oracle",
			"action", "judge_failed",
			"episode", ep.Title,
			"error", err,
		)
		return "", fmt.Errorf("%w: %w", ErrCallFailed, err)
	}

	slog.Debug("oracle judged",
		"component", "oracle",
		"action", "judge",
		"episode", ep.Title,
		"verdict", string(Classify(text)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
