package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/game"
	"github.com/hyperengineering/turtlesoup/internal/ratelimit"
	"github.com/hyperengineering/turtlesoup/internal/session"
	"github.com/hyperengineering/turtlesoup/internal/transcript"
	"github.com/hyperengineering/turtlesoup/internal/validation"
)

// OracleStatus reports whether the language model can be reached.
type OracleStatus interface {
	Available() bool
	ModelName() string
}

// Handler implements the API handlers
type Handler struct {
	catalog    *catalog.Catalog
	guard      *ratelimit.Guard
	oracle     OracleStatus
	sessions   *session.Manager
	transcript transcript.Store
	version    string
}

// NewHandler creates a new Handler. A nil transcript store disables chat
// history persistence.
func NewHandler(c *catalog.Catalog, g *ratelimit.Guard, o OracleStatus, m *session.Manager, ts transcript.Store, version string) *Handler {
	return &Handler{
		catalog:    c,
		guard:      g,
		oracle:     o,
		sessions:   m,
		transcript: ts,
		version:    version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:          "healthy",
		Version:         h.version,
		OracleAvailable: h.oracle.Available(),
		OracleModel:     h.oracle.ModelName(),
		EpisodeCount:    h.catalog.Len(),
		ActiveSessions:  h.sessions.Len(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEpisodes handles GET /api/v1/episodes
func (h *Handler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, EpisodesResponse{Episodes: h.catalog.Preview()})
}

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	e := h.sessions.Create()
	writeJSON(w, http.StatusCreated, h.state(e))
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state(MustSessionFromContext(r.Context())))
}

// DeleteSession handles DELETE /api/v1/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	e := MustSessionFromContext(r.Context())
	if err := h.sessions.Delete(e.ID); err != nil {
		MapError(w, r, err)
		return
	}
	h.guard.Forget(e.ID)
	h.clearTranscript(r, e.ID)
	w.WriteHeader(http.StatusNoContent)
}

// SelectEpisode handles POST /api/v1/sessions/{id}/episode
func (h *Handler) SelectEpisode(w http.ResponseWriter, r *http.Request) {
	var req SelectEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validation.ValidateEpisodeTitle(req.Title); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	e := MustSessionFromContext(r.Context())
	var (
		ok   bool
		info game.EpisodeInfo
	)
	e.Do(func(g *game.Session) {
		if ok = g.SelectEpisode(req.Title); ok {
			info, _ = g.CurrentEpisode()
		}
	})
	if !ok {
		MapError(w, r, fmt.Errorf("select %q: %w", req.Title, catalog.ErrNotFound))
		return
	}

	slog.Info("episode selected",
		"component", "api",
		"action", "episode_selected",
		"session_id", e.ID,
		"episode", info.Title,
	)
	h.appendTranscript(r, transcript.Entry{
		SessionID: e.ID,
		Episode:   info.Title,
		Kind:      transcript.KindSelect,
		Input:     req.Title,
		Response:  info.Question,
	})

	writeJSON(w, http.StatusOK, h.state(e))
}

// Investigate handles POST /api/v1/sessions/{id}/investigations.
// Game-level refusals (rate limits, oracle outages) are answered in-band.
func (h *Handler) Investigate(w http.ResponseWriter, r *http.Request) {
	var req InvestigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validation.ValidateInvestigation(req.Input); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	e := MustSessionFromContext(r.Context())
	var (
		resp    InvestigateResponse
		episode string
	)
	e.Do(func(g *game.Session) {
		resp.Turn = g.InvestigateTurn(r.Context(), req.Input, e.ID)
		if p, ok := g.Progress(); ok {
			resp.Progress = newProgressView(p)
		}
		if info, ok := g.CurrentEpisode(); ok {
			episode = info.Title
		}
	})
	resp.Limits = h.guard.Stats(e.ID)

	if resp.Judged {
		h.appendTranscript(r, transcript.Entry{
			SessionID: e.ID,
			Episode:   episode,
			Kind:      transcript.KindInvestigation,
			Input:     req.Input,
			Response:  resp.Response,
			Verdict:   string(resp.Verdict),
			NewClues:  resp.NewClues,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// PaidHint handles POST /api/v1/sessions/{id}/hints
func (h *Handler) PaidHint(w http.ResponseWriter, r *http.Request) {
	e := MustSessionFromContext(r.Context())

	var (
		resp    HintResponse
		episode string
	)
	e.Do(func(g *game.Session) {
		resp.Hint = g.PaidHint()
		resp.Remaining = g.PaidHintsRemaining()
		if info, ok := g.CurrentEpisode(); ok {
			episode = info.Title
		}
	})

	if episode != "" {
		h.appendTranscript(r, transcript.Entry{
			SessionID: e.ID,
			Episode:   episode,
			Kind:      transcript.KindHint,
			Response:  resp.Hint,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResetGame handles POST /api/v1/sessions/{id}/reset.
// Starting over also clears the chat history.
func (h *Handler) ResetGame(w http.ResponseWriter, r *http.Request) {
	e := MustSessionFromContext(r.Context())
	e.Do(func(g *game.Session) { g.Reset() })
	h.clearTranscript(r, e.ID)
	writeJSON(w, http.StatusOK, h.state(e))
}

// Limits handles GET /api/v1/sessions/{id}/limits
func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	e := MustSessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.guard.Stats(e.ID))
}

// ResetLimits handles POST /api/v1/sessions/{id}/limits/reset
func (h *Handler) ResetLimits(w http.ResponseWriter, r *http.Request) {
	e := MustSessionFromContext(r.Context())
	h.guard.Reset(e.ID)

	slog.Info("session limits reset",
		"component", "api",
		"action", "limits_reset",
		"session_id", e.ID,
	)

	writeJSON(w, http.StatusOK, h.guard.Stats(e.ID))
}

// Transcript handles GET /api/v1/sessions/{id}/transcript
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	e := MustSessionFromContext(r.Context())
	resp := TranscriptResponse{SessionID: e.ID, Entries: []transcript.Entry{}}

	if h.transcript != nil {
		entries, err := h.transcript.List(r.Context(), e.ID)
		if err != nil {
			slog.Error("transcript list failed",
				"component", "api",
				"session_id", e.ID,
				"error", err,
			)
			MapError(w, r, err)
			return
		}
		resp.Enabled = true
		resp.Entries = entries
	}

	writeJSON(w, http.StatusOK, resp)
}

// state snapshots a session for the client.
func (h *Handler) state(e *session.Entry) SessionState {
	s := SessionState{SessionID: e.ID}
	e.Do(func(g *game.Session) {
		s.Phase = g.Phase()
		s.Investigations = g.Investigations()
		s.PaidHintsRemaining = g.PaidHintsRemaining()
		if info, ok := g.CurrentEpisode(); ok {
			s.Episode = &info
		}
		if p, ok := g.Progress(); ok {
			s.Progress = newProgressView(p)
		}
		if answer, ok := g.Answer(); ok {
			s.Answer = answer
		}
	})
	s.Limits = h.guard.Stats(e.ID)
	return s
}

// appendTranscript records an entry. Persistence failures are logged and
// never fail the request.
func (h *Handler) appendTranscript(r *http.Request, entry transcript.Entry) {
	if h.transcript == nil {
		return
	}
	if _, err := h.transcript.Append(r.Context(), entry); err != nil {
		slog.Error("transcript append failed",
			"component", "api",
			"session_id", entry.SessionID,
			"error", err,
		)
	}
}

func (h *Handler) clearTranscript(r *http.Request, sessionID string) {
	if h.transcript == nil {
		return
	}
	if _, err := h.transcript.DeleteSession(r.Context(), sessionID); err != nil {
		slog.Error("transcript delete failed",
			"component", "api",
			"session_id", sessionID,
			"error", err,
		)
	}
}
