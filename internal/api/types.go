package api

import (
	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/game"
	"github.com/hyperengineering/turtlesoup/internal/ratelimit"
	"github.com/hyperengineering/turtlesoup/internal/transcript"
)

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	OracleAvailable bool   `json:"oracle_available"`
	OracleModel     string `json:"oracle_model,omitempty"`
	EpisodeCount    int    `json:"episode_count"`
	ActiveSessions  int    `json:"active_sessions"`
}

// EpisodesResponse lists the catalog.
type EpisodesResponse struct {
	Episodes []catalog.Preview `json:"episodes"`
}

// ProgressView is game progress with the undiscovered clue texts withheld.
type ProgressView struct {
	Total          int      `json:"total_clues"`
	Found          int      `json:"found_clues"`
	Percentage     float64  `json:"progress_percentage"`
	FoundList      []string `json:"found_clues_list"`
	RemainingCount int      `json:"remaining_clues"`
}

func newProgressView(p game.Progress) *ProgressView {
	return &ProgressView{
		Total:          p.Total,
		Found:          p.Found,
		Percentage:     p.Percentage,
		FoundList:      p.FoundList,
		RemainingCount: len(p.Remaining),
	}
}

// SessionState is the player-visible state of one session.
type SessionState struct {
	SessionID          string            `json:"session_id"`
	Phase              game.Phase        `json:"phase"`
	Episode            *game.EpisodeInfo `json:"episode"`
	Progress           *ProgressView     `json:"progress"`
	Investigations     int               `json:"investigations"`
	PaidHintsRemaining int               `json:"paid_hints_remaining"`
	Answer             string            `json:"answer,omitempty"`
	Limits             ratelimit.Stats   `json:"limits"`
}

// SelectEpisodeRequest is the body of POST /sessions/{id}/episode.
type SelectEpisodeRequest struct {
	Title string `json:"title"`
}

// InvestigateRequest is the body of POST /sessions/{id}/investigations.
type InvestigateRequest struct {
	Input string `json:"input"`
}

// InvestigateResponse carries the turn outcome plus refreshed progress.
type InvestigateResponse struct {
	game.Turn
	Progress *ProgressView   `json:"progress"`
	Limits   ratelimit.Stats `json:"limits"`
}

// HintResponse is returned by POST /sessions/{id}/hints.
type HintResponse struct {
	Hint      string `json:"hint"`
	Remaining int    `json:"remaining"`
}

// TranscriptResponse is a session's chat history.
type TranscriptResponse struct {
	SessionID string             `json:"session_id"`
	Enabled   bool               `json:"enabled"`
	Entries   []transcript.Entry `json:"entries"`
}
