package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Settings selects and configures an oracle backend.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// New builds a dispatcher for the configured provider. A credential problem
// never fails startup: it is logged once and yields an unavailable
// dispatcher, so the rest of the game keeps working. The returned closer
// releases backend resources and is never nil.
func New(ctx context.Context, s Settings) (*Dispatcher, io.Closer, error) {
	if err := ValidateAPIKey(s.Provider, s.APIKey); err != nil {
		slog.Warn("oracle disabled",
			"component", "oracle",
			"action", "configuration_error",
			"provider", s.Provider,
			"error", err,
		)
		return Unavailable(configReason(err)), nopCloser{}, nil
	}

	switch s.Provider {
	case ProviderGemini:
		g, err := NewGemini(ctx, s.APIKey, s.Model)
		if err != nil {
			return nil, nil, err
		}
		return NewDispatcher(g, s.Timeout), g, nil
	default:
		return NewDispatcher(NewOpenAI(s.APIKey, s.Model), s.Timeout), nopCloser{}, nil
	}
}

// configReason strips the sentinel prefix so players see only the cause.
func configReason(err error) string {
	msg := err.Error()
	if errors.Is(err, ErrConfiguration) {
		msg = strings.TrimPrefix(msg, ErrConfiguration.Error()+": ")
	}
	return msg
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
