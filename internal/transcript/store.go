// Package transcript persists the chat history of each game session.
package transcript

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidEntry indicates an entry is missing required fields.
var ErrInvalidEntry = errors.New("invalid transcript entry")

// Kind distinguishes the player actions that produce an entry.
type Kind string

const (
	KindInvestigation Kind = "investigation"
	KindHint          Kind = "hint"
	KindSelect        Kind = "select"
)

// Entry is one exchange between the player and the game.
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Episode   string    `json:"episode"`
	Kind      Kind      `json:"kind"`
	Input     string    `json:"input,omitempty"`
	Response  string    `json:"response"`
	Verdict   string    `json:"verdict,omitempty"`
	NewClues  []string  `json:"new_clues,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the transcript persistence contract.
type Store interface {
	Append(ctx context.Context, e Entry) (*Entry, error)
	List(ctx context.Context, sessionID string) ([]Entry, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
	Close() error
}
