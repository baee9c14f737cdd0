package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/turtlesoup/internal/session"
)

// sessionContextKey is the context key for the resolved session entry.
type sessionContextKey struct{}

// ErrNoSessionInContext indicates no session was found in the context.
var ErrNoSessionInContext = errors.New("no session in context")

// WithSession returns a new context with the session entry attached.
func WithSession(ctx context.Context, e *session.Entry) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, e)
}

// SessionFromContext extracts the session entry from the context.
// Returns ErrNoSessionInContext if not present or nil.
func SessionFromContext(ctx context.Context) (*session.Entry, error) {
	e, ok := ctx.Value(sessionContextKey{}).(*session.Entry)
	if !ok || e == nil {
		return nil, ErrNoSessionInContext
	}
	return e, nil
}

// MustSessionFromContext extracts the session or panics.
// Use only when middleware guarantees session presence.
func MustSessionFromContext(ctx context.Context) *session.Entry {
	e, err := SessionFromContext(ctx)
	if err != nil {
		panic("session not in context: middleware misconfiguration")
	}
	return e
}

// SessionMiddleware resolves the {id} URL parameter to a registered session.
func SessionMiddleware(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			e, err := m.Get(chi.URLParam(r, "id"))
			if err != nil {
				MapError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), e)))
		})
	}
}
