package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/turtlesoup/internal/game"
)

var (
	// ErrSessionNotFound indicates the requested session is not registered.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidID indicates a session ID is not a ULID.
	ErrInvalidID = errors.New("invalid session ID")
)

// Factory builds fresh game state for a new session.
type Factory func() *game.Session

// Manager maps session IDs to their game state.
type Manager struct {
	newGame Factory
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for IDs and idle tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an empty registry.
func NewManager(newGame Factory, opts ...Option) *Manager {
	m := &Manager{
		newGame: newGame,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ValidateID checks that id is a well-formed ULID.
func ValidateID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return nil
}

// Create registers a new session in the SELECTING phase.
func (m *Manager) Create() *Entry {
	now := m.now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	e := &Entry{
		ID:      id,
		Created: now.UTC(),
		game:    m.newGame(),
	}
	e.touch(now)

	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()

	slog.Info("session created",
		"component", "session",
		"action", "session_created",
		"session_id", id,
	)

	return e
}

// Get returns the session for id and marks it as accessed.
func (m *Manager) Get(id string) (*Entry, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.touch(m.now())
	return e, nil
}

// Exists reports whether id is registered without marking it as accessed.
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[id]
	return ok
}

// Delete removes a session. Returns ErrSessionNotFound if it was not registered.
func (m *Manager) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.entries, id)

	slog.Info("session deleted",
		"component", "session",
		"action", "session_deleted",
		"session_id", id,
	)

	return nil
}

// Sweep removes sessions idle for longer than ttl and returns their IDs.
// A non-positive ttl disables eviction.
func (m *Manager) Sweep(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted []string
	for id, e := range m.entries {
		if e.LastAccessed().Before(cutoff) {
			delete(m.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
