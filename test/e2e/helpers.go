package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/turtlesoup/internal/api"
	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/game"
	"github.com/hyperengineering/turtlesoup/internal/oracle"
	"github.com/hyperengineering/turtlesoup/internal/ratelimit"
	"github.com/hyperengineering/turtlesoup/internal/session"
	"github.com/hyperengineering/turtlesoup/internal/transcript"
	"github.com/hyperengineering/turtlesoup/internal/worker"
)

// --- Scripted Oracle ---

// scriptedOracle answers by exact player input and falls back to a plain "no".
type scriptedOracle struct {
	mu      sync.Mutex
	answers map[string]string
	calls   int
}

func newScriptedOracle(answers map[string]string) *scriptedOracle {
	return &scriptedOracle{answers: answers}
}

func (o *scriptedOracle) Complete(ctx context.Context, p oracle.Prompt) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++

	for input, answer := range o.answers {
		if strings.Contains(p.User, fmt.Sprintf("플레이어 입력: %q", input)) {
			return answer, nil
		}
	}
	return oracle.AnswerNo, nil
}

func (o *scriptedOracle) ModelName() string { return "scripted" }

func (o *scriptedOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// --- In-Process Game Server ---

type serverOptions struct {
	policy ratelimit.Policy
	now    func() time.Time
}

// gameServer wires the real catalog, limiter, sessions, transcript store,
// and router behind an httptest server. Only the language model is faked.
type gameServer struct {
	*httptest.Server
	oracle      *scriptedOracle
	guard       *ratelimit.Guard
	sessions    *session.Manager
	transcripts *transcript.SQLiteStore
	dbPath      string
}

func startGameServer(t *testing.T, answers map[string]string, opts serverOptions) *gameServer {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}

	if opts.now == nil {
		opts.now = time.Now
	}
	o := newScriptedOracle(answers)
	dispatcher := oracle.NewDispatcher(o, time.Second)
	guard := ratelimit.NewGuard(opts.policy, ratelimit.WithClock(opts.now))
	sessions := session.NewManager(func() *game.Session {
		return game.NewSession(cat, dispatcher, guard)
	}, session.WithClock(opts.now))

	dbPath := filepath.Join(t.TempDir(), "transcript.db")
	store, err := transcript.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(cat, guard, dispatcher, sessions, store, "e2e")
	srv := httptest.NewServer(api.NewRouter(handler, nil, false))
	t.Cleanup(srv.Close)

	return &gameServer{
		Server:      srv,
		oracle:      o,
		guard:       guard,
		sessions:    sessions,
		transcripts: store,
		dbPath:      dbPath,
	}
}

// sweeper returns a sweep worker over the server's registries.
func (s *gameServer) sweeper(idle time.Duration) *worker.SweepWorker {
	return worker.NewSweepWorker(worker.SweepConfig{
		Interval:        time.Minute,
		SessionIdleTTL:  idle,
		LimitIdleTTL:    idle,
		LimitBlockedTTL: 24 * time.Hour,
	}, s.sessions, s.guard, s.transcripts, nil)
}

// --- HTTP Helpers ---

func (s *gameServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+"/api/v1"+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// doJSON performs a request, checks the status, and decodes the body.
func doJSON[T any](t *testing.T, s *gameServer, method, path string, body any, wantStatus int) T {
	t.Helper()

	resp := s.do(t, method, path, body)
	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, wantStatus, data)
	}

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return v
}

func (s *gameServer) createSession(t *testing.T) string {
	t.Helper()
	state := doJSON[api.SessionState](t, s, http.MethodPost, "/sessions", nil, http.StatusCreated)
	return state.SessionID
}

func (s *gameServer) selectEpisode(t *testing.T, id, title string) api.SessionState {
	t.Helper()
	return doJSON[api.SessionState](t, s, http.MethodPost, "/sessions/"+id+"/episode",
		api.SelectEpisodeRequest{Title: title}, http.StatusOK)
}

func (s *gameServer) investigate(t *testing.T, id, input string) api.InvestigateResponse {
	t.Helper()
	return doJSON[api.InvestigateResponse](t, s, http.MethodPost, "/sessions/"+id+"/investigations",
		api.InvestigateRequest{Input: input}, http.StatusOK)
}

// --- DB Inspection ---

func (s *gameServer) transcriptCount(t *testing.T, sessionID string) int {
	t.Helper()

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		t.Fatalf("open transcript DB: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM transcript_turns WHERE session_id = ?", sessionID).Scan(&count); err != nil {
		t.Fatalf("count transcript_turns: %v", err)
	}
	return count
}
