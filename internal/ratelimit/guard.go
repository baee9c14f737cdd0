// Package ratelimit guards the oracle against abusive sessions with two
// independent ceilings: a sticky per-session lifetime cap and a sliding
// per-minute window.
package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultSessionRequestCap is the lifetime request ceiling per session.
	DefaultSessionRequestCap = 50
	// DefaultMinuteRequestCap is the request ceiling inside one window.
	DefaultMinuteRequestCap = 10
	// DefaultWindow is the sliding window length for MinuteRequestCap.
	DefaultWindow = time.Minute
)

// Reason identifies why a check was denied.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonSessionBlocked      Reason = "session_blocked"
	ReasonLifetimeCapExceeded Reason = "lifetime_cap_exceeded"
	ReasonMinuteCapExceeded   Reason = "minute_cap_exceeded"
)

// Decision is the outcome of Check. Message is user-facing and empty when allowed.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

// Policy holds the guard's ceilings. Zero fields take defaults.
type Policy struct {
	SessionRequestCap int
	MinuteRequestCap  int
	Window            time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.SessionRequestCap <= 0 {
		p.SessionRequestCap = DefaultSessionRequestCap
	}
	if p.MinuteRequestCap <= 0 {
		p.MinuteRequestCap = DefaultMinuteRequestCap
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	return p
}

// Stats reports a session's lifetime usage.
type Stats struct {
	TotalRequests     int  `json:"total_requests"`
	RemainingRequests int  `json:"remaining_requests"`
	IsBlocked         bool `json:"is_blocked"`
}

// record is the per-session state. Its own mutex gives per-key atomicity;
// no lock is ever held across two records.
type record struct {
	mu       sync.Mutex
	total    int
	recent   []time.Time
	blocked  bool
	lastSeen time.Time
}

// Guard tracks request counts per opaque session id.
// It is safe for concurrent use across sessions.
type Guard struct {
	policy Policy
	now    func() time.Time

	mu      sync.RWMutex
	records map[string]*record
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// NewGuard creates a guard enforcing the given policy.
func NewGuard(policy Policy, opts ...Option) *Guard {
	g := &Guard{
		policy:  policy.withDefaults(),
		now:     time.Now,
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the effective policy.
func (g *Guard) Policy() Policy {
	return g.policy
}

// lookup returns the record for id, creating it when create is set.
func (g *Guard) lookup(id string, create bool) *record {
	g.mu.RLock()
	rec, ok := g.records[id]
	g.mu.RUnlock()
	if ok || !create {
		return rec
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok = g.records[id]; ok {
		return rec
	}
	rec = &record{lastSeen: g.now()}
	g.records[id] = rec
	return rec
}

// Check decides whether sessionID may make another oracle call. It mutates
// nothing except pruning stale timestamps and tripping the sticky block.
func (g *Guard) Check(sessionID string) Decision {
	rec := g.lookup(sessionID, true)
	now := g.now()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.lastSeen = now

	if rec.blocked {
		return Decision{
			Reason:  ReasonSessionBlocked,
			Message: "🚫 이 세션은 API 남용으로 인해 차단되었습니다.",
		}
	}

	if rec.total >= g.policy.SessionRequestCap {
		rec.blocked = true
		slog.Warn("session blocked",
			"component", "ratelimit",
			"action", "session_blocked",
			"session_id", sessionID,
			"total_requests", rec.total,
		)
		return Decision{
			Reason:  ReasonLifetimeCapExceeded,
			Message: fmt.Sprintf("🚫 세션당 최대 요청 수(%d회)를 초과했습니다.", g.policy.SessionRequestCap),
		}
	}

	rec.recent = prune(rec.recent, now.Add(-g.policy.Window))
	if len(rec.recent) >= g.policy.MinuteRequestCap {
		return Decision{
			Reason:  ReasonMinuteCapExceeded,
			Message: fmt.Sprintf("🚫 분당 최대 요청 수(%d회)를 초과했습니다. 잠시 후 다시 시도해주세요.", g.policy.MinuteRequestCap),
		}
	}

	return Decision{Allowed: true}
}

// Record counts one admitted call for sessionID.
// Call it exactly once per admitted external call, never for denied ones.
func (g *Guard) Record(sessionID string) {
	rec := g.lookup(sessionID, true)
	now := g.now()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.total++
	rec.recent = append(rec.recent, now)
	rec.lastSeen = now
}

// Stats returns lifetime usage for sessionID. Unknown ids report zero usage
// and are not registered.
func (g *Guard) Stats(sessionID string) Stats {
	rec := g.lookup(sessionID, false)
	if rec == nil {
		return Stats{RemainingRequests: g.policy.SessionRequestCap}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return Stats{
		TotalRequests:     rec.total,
		RemainingRequests: max(0, g.policy.SessionRequestCap-rec.total),
		IsBlocked:         rec.blocked,
	}
}

// Reset zeroes counters, clears the window history, and lifts a block.
func (g *Guard) Reset(sessionID string) {
	rec := g.lookup(sessionID, false)
	if rec == nil {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.total = 0
	rec.recent = nil
	rec.blocked = false
	rec.lastSeen = g.now()

	slog.Info("session limits reset",
		"component", "ratelimit",
		"action", "session_reset",
		"session_id", sessionID,
	)
}

// Forget drops the record for sessionID. It reports whether one existed.
func (g *Guard) Forget(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.records[sessionID]; !ok {
		return false
	}
	delete(g.records, sessionID)
	return true
}

// Sweep evicts records idle longer than idleTTL. Blocked records are kept
// until blockedTTL so an eviction never lifts a block early. Records for
// which live reports true are never evicted; a nil live treats every record
// as orphaned. A non-positive TTL disables eviction for that class.
// Returns the number evicted.
func (g *Guard) Sweep(idleTTL, blockedTTL time.Duration, live func(sessionID string) bool) int {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	evicted := 0
	for id, rec := range g.records {
		rec.mu.Lock()
		idle := now.Sub(rec.lastSeen)
		ttl := idleTTL
		if rec.blocked {
			ttl = blockedTTL
		}
		rec.mu.Unlock()

		if ttl <= 0 || idle <= ttl {
			continue
		}
		if live != nil && live(id) {
			continue
		}
		delete(g.records, id)
		evicted++
	}
	return evicted
}

// Len returns the number of tracked sessions.
func (g *Guard) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

// prune drops timestamps at or before cutoff, reusing the backing array.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
