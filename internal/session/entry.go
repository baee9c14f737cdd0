package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperengineering/turtlesoup/internal/game"
)

// Entry is one registered player session. The game state behind it is
// single-threaded, so every access goes through Do.
type Entry struct {
	ID      string
	Created time.Time

	mu   sync.Mutex
	game *game.Session

	// lastAccess is tracked outside mu so sweeps never wait on an
	// in-flight oracle call.
	lastAccess atomic.Int64
}

// Do runs fn with exclusive access to the session's game state.
func (e *Entry) Do(fn func(g *game.Session)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.game)
}

// LastAccessed returns when the entry was last fetched from the registry.
func (e *Entry) LastAccessed() time.Time {
	return time.Unix(0, e.lastAccess.Load())
}

func (e *Entry) touch(now time.Time) {
	e.lastAccess.Store(now.UnixNano())
}
