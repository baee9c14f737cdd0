package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/game"
	"github.com/hyperengineering/turtlesoup/internal/ratelimit"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type idleJudge struct{}

func (idleJudge) Available() bool            { return false }
func (idleJudge) UnavailableMessage() string { return "unavailable" }
func (idleJudge) Judge(context.Context, catalog.Episode, string) (string, error) {
	return "", nil
}

func newTestManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	guard := ratelimit.NewGuard(ratelimit.Policy{})
	factory := func() *game.Session {
		return game.NewSession(cat, idleJudge{}, guard)
	}
	return NewManager(factory, WithClock(clock.Now))
}

func TestManager_CreateAndGet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	e := m.Create()
	if err := ValidateID(e.ID); err != nil {
		t.Fatalf("Create() produced invalid ID %q: %v", e.ID, err)
	}

	got, err := m.Get(e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != e {
		t.Error("Get() returned a different entry")
	}

	var phase game.Phase
	got.Do(func(g *game.Session) { phase = g.Phase() })
	if phase != game.PhaseSelecting {
		t.Errorf("new session phase = %s, want selecting", phase)
	}
}

func TestManager_CreateUniqueIDs(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, clock)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := m.Create().ID
		if seen[id] {
			t.Fatalf("duplicate session ID %q", id)
		}
		seen[id] = true
	}
	if m.Len() != 100 {
		t.Errorf("Len() = %d, want 100", m.Len())
	}
}

func TestManager_GetErrors(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, clock)

	if _, err := m.Get("not-a-ulid"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Get(invalid) error = %v, want ErrInvalidID", err)
	}
	if _, err := m.Get("01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_Delete(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, clock)
	e := m.Create()

	if err := m.Delete(e.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(e.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrSessionNotFound", err)
	}
	if err := m.Delete(e.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	stale := m.Create()
	clock.Advance(2 * time.Hour)
	fresh := m.Create()
	clock.Advance(2 * time.Hour)
	if _, err := m.Get(fresh.ID); err != nil {
		t.Fatalf("Get(fresh) error = %v", err)
	}

	evicted := m.Sweep(3 * time.Hour)
	if len(evicted) != 1 || evicted[0] != stale.ID {
		t.Errorf("Sweep() = %v, want [%s]", evicted, stale.ID)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
}

func TestManager_SweepDisabled(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, clock)
	m.Create()
	clock.Advance(1000 * time.Hour)

	if evicted := m.Sweep(0); len(evicted) != 0 {
		t.Errorf("Sweep(0) = %v, want none", evicted)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestEntry_DoSerializes(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, clock)
	e := m.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Do(func(g *game.Session) {
				g.SelectEpisode("바다거북 수프")
				g.Reset()
			})
		}()
	}
	wg.Wait()

	e.Do(func(g *game.Session) {
		if g.Phase() != game.PhaseSelecting {
			t.Errorf("Phase() = %s, want selecting", g.Phase())
		}
	})
}

func TestManager_ExistsDoesNotTouch(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)
	e := m.Create()

	clock.Advance(4 * time.Hour)
	if !m.Exists(e.ID) {
		t.Fatal("Exists() = false for registered session")
	}
	if m.Exists("01ARZ3NDEKTSV4RRFFQ69G5FAV") {
		t.Error("Exists() = true for unknown session")
	}
	if evicted := m.Sweep(3 * time.Hour); len(evicted) != 1 {
		t.Errorf("Sweep() = %v, want Exists not to refresh idle time", evicted)
	}
}
