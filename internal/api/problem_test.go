package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/session"
	"github.com/hyperengineering/turtlesoup/internal/validation"
)

func TestWriteProblem_BodyFormat(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x", nil)

	WriteProblem(w, r, http.StatusNotFound, "Session not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if p.Type != "https://turtlesoup.dev/errors/not-found" {
		t.Errorf("Type = %q", p.Type)
	}
	if p.Title != "Not Found" || p.Status != 404 || p.Detail != "Session not found" {
		t.Errorf("p = %+v", p)
	}
	if p.Instance != "/api/v1/sessions/x" {
		t.Errorf("Instance = %q", p.Instance)
	}
}

func TestWriteProblem_UnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteProblem(w, r, http.StatusTeapot, "short and stout")

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != "https://turtlesoup.dev/errors/unknown" || p.Title != http.StatusText(http.StatusTeapot) {
		t.Errorf("p = %+v", p)
	}
}

func TestWriteProblemWithErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/episode", nil)

	errs := []validation.ValidationError{{Field: "title", Message: "is required"}}
	WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	var p ProblemWithErrors
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "title" {
		t.Errorf("Errors = %+v", p.Errors)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid session id", fmt.Errorf("%w: bad", session.ErrInvalidID), http.StatusBadRequest},
		{"session not found", session.ErrSessionNotFound, http.StatusNotFound},
		{"episode not found", fmt.Errorf("select: %w", catalog.ErrNotFound), http.StatusNotFound},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			MapError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}
