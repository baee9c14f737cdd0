// Package game implements the per-player game state machine: episode
// selection, investigations judged by the oracle, clue bookkeeping, hints,
// and the selecting → playing → finished lifecycle.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/oracle"
	"github.com/hyperengineering/turtlesoup/internal/ratelimit"
)

// Phase is the coarse game state.
type Phase string

const (
	PhaseSelecting Phase = "selecting"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// FreeHintInterval is the number of investigations between free hints.
const FreeHintInterval = 4

// Player-facing messages.
const (
	MsgSelectEpisode   = "에피소드를 먼저 선택해주세요."
	MsgEmptyInput      = "질문이나 추리를 입력해주세요."
	MsgAlreadyFinished = "🎉 이미 모든 단서를 찾았습니다! 새 게임을 시작해주세요."
	MsgHintsExhausted  = "더 이상 사용할 수 있는 힌트가 없습니다."
	MsgNoPaidHints     = "이 에피소드에는 힌트가 없습니다."
)

const (
	freeHintPrefix      = "\n\n💡 힌트: "
	callFailedMsgFormat = "AI 응답 생성 중 오류가 발생했습니다: %v"
)

// Catalog finds episodes by exact title.
type Catalog interface {
	Find(title string) (catalog.Episode, error)
}

// Judge dispatches an investigation to the oracle.
type Judge interface {
	Available() bool
	UnavailableMessage() string
	Judge(ctx context.Context, ep catalog.Episode, input string) (string, error)
}

// Limiter admits or denies oracle calls per session.
type Limiter interface {
	Check(sessionID string) ratelimit.Decision
	Record(sessionID string)
}

// EpisodeInfo is the public part of the active episode.
type EpisodeInfo struct {
	Title    string `json:"title"`
	Question string `json:"question"`
}

// Progress reports clue discovery for the active episode.
type Progress struct {
	Total      int      `json:"total_clues"`
	Found      int      `json:"found_clues"`
	Percentage float64  `json:"progress_percentage"`
	FoundList  []string `json:"found_clues_list"`
	Remaining  []string `json:"remaining_clues"`
}

// Turn is the full outcome of one investigation.
type Turn struct {
	Response    string         `json:"response"`
	Verdict     oracle.Verdict `json:"verdict,omitempty"`
	NewClues    []string       `json:"new_clues,omitempty"`
	FreeHint    string         `json:"free_hint,omitempty"`
	RateLimited bool           `json:"rate_limited,omitempty"`
	Judged      bool           `json:"judged"`
	Phase       Phase          `json:"phase"`
}

// Session is one player's game. It is not safe for concurrent use; callers
// serialize interaction per session.
type Session struct {
	catalog Catalog
	judge   Judge
	limiter Limiter
	intn    func(n int) int

	episode        *catalog.Episode
	found          map[string]struct{}
	phase          Phase
	investigations int
	consumedPaid   map[int]struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithRand overrides the random index source used for paid hints.
func WithRand(intn func(n int) int) Option {
	return func(s *Session) {
		s.intn = intn
	}
}

// NewSession creates a session in the selecting phase.
func NewSession(c Catalog, j Judge, l Limiter, opts ...Option) *Session {
	s := &Session{
		catalog: c,
		judge:   j,
		limiter: l,
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clear()
	return s
}

func (s *Session) clear() {
	s.episode = nil
	s.found = make(map[string]struct{})
	s.phase = PhaseSelecting
	s.investigations = 0
	s.consumedPaid = make(map[int]struct{})
}

// SelectEpisode starts a fresh attempt at the titled episode. It is valid
// from any phase. On an unknown title the session is left unchanged and
// false is returned.
func (s *Session) SelectEpisode(title string) bool {
	ep, err := s.catalog.Find(title)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			slog.Error("episode lookup failed", "component", "game", "episode", title, "error", err)
		}
		return false
	}

	s.clear()
	s.episode = &ep
	s.phase = PhasePlaying

	slog.Info("episode selected",
		"component", "game",
		"action", "episode_selected",
		"episode", ep.Title,
		"clues", len(ep.Clues),
	)
	return true
}

// Reset returns the session to the selecting phase and forgets everything.
func (s *Session) Reset() {
	s.clear()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Investigations returns the number of investigations dispatched to the
// oracle for the current episode attempt.
func (s *Session) Investigations() int {
	return s.investigations
}

// CurrentEpisode returns the active episode's public info.
func (s *Session) CurrentEpisode() (EpisodeInfo, bool) {
	if s.episode == nil {
		return EpisodeInfo{}, false
	}
	return EpisodeInfo{Title: s.episode.Title, Question: s.episode.Question}, true
}

// Answer returns the backstory, which is only revealed once finished.
func (s *Session) Answer() (string, bool) {
	if s.episode == nil || s.phase != PhaseFinished {
		return "", false
	}
	return s.episode.Answer, true
}

// Progress reports clue discovery. ok is false with no active episode.
// Both lists follow the episode's clue order.
func (s *Session) Progress() (p Progress, ok bool) {
	if s.episode == nil {
		return Progress{}, false
	}

	p.Total = len(s.episode.Clues)
	p.FoundList = []string{}
	p.Remaining = []string{}
	for _, clue := range s.episode.Clues {
		if _, ok := s.found[clue]; ok {
			p.FoundList = append(p.FoundList, clue)
		} else {
			p.Remaining = append(p.Remaining, clue)
		}
	}
	p.Found = len(p.FoundList)
	if p.Total > 0 {
		p.Percentage = 100 * float64(p.Found) / float64(p.Total)
	}
	return p, true
}

// Investigate judges one player turn and returns the text to show.
func (s *Session) Investigate(ctx context.Context, input, sessionID string) string {
	return s.InvestigateTurn(ctx, input, sessionID).Response
}

// InvestigateTurn judges one player turn. A rate-limit denial or an
// unavailable oracle returns a message without touching state. Otherwise the
// investigation count is incremented before dispatch, and a failed oracle
// call changes nothing else.
func (s *Session) InvestigateTurn(ctx context.Context, input, sessionID string) Turn {
	turn := Turn{Phase: s.phase}

	switch {
	case s.episode == nil:
		turn.Response = MsgSelectEpisode
		return turn
	case s.phase == PhaseFinished:
		turn.Response = MsgAlreadyFinished
		return turn
	case strings.TrimSpace(input) == "":
		turn.Response = MsgEmptyInput
		return turn
	}

	if d := s.limiter.Check(sessionID); !d.Allowed {
		turn.Response = d.Message
		turn.RateLimited = true
		return turn
	}

	if !s.judge.Available() {
		turn.Response = s.judge.UnavailableMessage()
		return turn
	}

	s.limiter.Record(sessionID)
	s.investigations++

	text, err := s.judge.Judge(ctx, *s.episode, input)
	if err != nil {
		if errors.Is(err, oracle.ErrUnavailable) {
			turn.Response = s.judge.UnavailableMessage()
		} else {
			turn.Response = fmt.Sprintf(callFailedMsgFormat, err)
		}
	} else {
		turn.Judged = true
		turn.Response = text
		turn.Verdict = oracle.Classify(text)
		turn.NewClues = s.credit(text, input)
	}

	if hint, ok := s.freeHint(); ok {
		turn.FreeHint = hint
		turn.Response += freeHintPrefix + hint
	}

	turn.Phase = s.phase
	return turn
}

// credit records clues the response earned and finishes the game when the
// clue set is complete.
func (s *Session) credit(response, input string) []string {
	newClues := Reconcile(s.episode.Clues, s.found, response, input)
	for _, clue := range newClues {
		s.found[clue] = struct{}{}
	}

	if len(newClues) > 0 {
		slog.Info("clues found",
			"component", "game",
			"action", "clues_found",
			"episode", s.episode.Title,
			"new", len(newClues),
			"found", len(s.found),
			"total", len(s.episode.Clues),
		)
	}

	if len(s.found) == len(s.episode.Clues) {
		s.phase = PhaseFinished
		slog.Info("episode finished",
			"component", "game",
			"action", "episode_finished",
			"episode", s.episode.Title,
			"investigations", s.investigations,
		)
	}
	return newClues
}

// freeHint returns the free hint due at the current investigation count.
func (s *Session) freeHint() (string, bool) {
	n := s.investigations
	if n == 0 || n%FreeHintInterval != 0 {
		return "", false
	}
	i := n/FreeHintInterval - 1
	if i >= len(s.episode.HintFree) {
		return "", false
	}
	return s.episode.HintFree[i], true
}

// PaidHint reveals a random paid hint not yet shown in this attempt.
// It returns MsgNoPaidHints when the episode defines none and
// MsgHintsExhausted once every paid hint has been used.
func (s *Session) PaidHint() string {
	if s.episode == nil {
		return MsgSelectEpisode
	}
	hints := s.episode.HintPaid
	if len(hints) == 0 {
		return MsgNoPaidHints
	}

	available := lo.Filter(lo.Range(len(hints)), func(i, _ int) bool {
		_, used := s.consumedPaid[i]
		return !used
	})
	if len(available) == 0 {
		return MsgHintsExhausted
	}

	idx := available[s.intn(len(available))]
	s.consumedPaid[idx] = struct{}{}
	return hints[idx]
}

// PaidHintsRemaining returns how many paid hints are still unused.
func (s *Session) PaidHintsRemaining() int {
	if s.episode == nil {
		return 0
	}
	return len(s.episode.HintPaid) - len(s.consumedPaid)
}
