//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/turtlesoup/internal/api"
	"github.com/hyperengineering/turtlesoup/internal/catalog"
)

func TestBinary_PlaysWithoutOracleKey(t *testing.T) {
	s := startTurtlesoup(t)

	var health api.HealthResponse
	if code := s.call(t, http.MethodGet, "/health", nil, &health); code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}
	if health.OracleAvailable {
		t.Error("oracle reported available without a key")
	}

	var state api.SessionState
	if code := s.call(t, http.MethodPost, "/sessions", nil, &state); code != http.StatusCreated {
		t.Fatalf("create session status = %d", code)
	}
	id := state.SessionID

	if code := s.call(t, http.MethodPost, "/sessions/"+id+"/episode",
		api.SelectEpisodeRequest{Title: "바다거북 수프"}, &state); code != http.StatusOK {
		t.Fatalf("select status = %d", code)
	}

	// Without an oracle the refusal is in-band and consumes nothing.
	var turn api.InvestigateResponse
	if code := s.call(t, http.MethodPost, "/sessions/"+id+"/investigations",
		api.InvestigateRequest{Input: "남자는 배를 탔나요?"}, &turn); code != http.StatusOK {
		t.Fatalf("investigate status = %d", code)
	}
	if turn.Judged || turn.Response == "" {
		t.Errorf("turn = %+v, want unjudged refusal", turn)
	}
	if turn.Limits.TotalRequests != 0 {
		t.Errorf("limits = %+v, want no usage", turn.Limits)
	}

	// Hints work without the oracle.
	var hint api.HintResponse
	if code := s.call(t, http.MethodPost, "/sessions/"+id+"/hints", nil, &hint); code != http.StatusOK {
		t.Fatalf("hint status = %d", code)
	}
	if hint.Hint == "" || hint.Remaining != 2 {
		t.Errorf("hint = %+v", hint)
	}

	var tr api.TranscriptResponse
	s.call(t, http.MethodGet, "/sessions/"+id+"/transcript", nil, &tr)
	if !tr.Enabled || len(tr.Entries) != 2 {
		t.Errorf("transcript = %d entries (enabled=%v), want 2", len(tr.Entries), tr.Enabled)
	}
}

func TestBinary_EpisodesCLI(t *testing.T) {
	dir := t.TempDir()
	env := []string{
		"TURTLESOUP_CONFIG_PATH=" + filepath.Join(dir, "nonexistent.yaml"),
		"TURTLESOUP_ENV_FILE=" + filepath.Join(dir, "nonexistent.env"),
	}

	out := runCLI(t, env, "episodes", "list", "--json")
	var previews []catalog.Preview
	if err := json.Unmarshal([]byte(out), &previews); err != nil {
		t.Fatalf("decode episodes list: %v\n%s", err, out)
	}
	if len(previews) != 3 {
		t.Errorf("episodes = %d, want 3", len(previews))
	}

	out = runCLI(t, env, "episodes", "show", "사막의 시체")
	if !strings.Contains(out, "Title:      사막의 시체") {
		t.Errorf("show output = %q", out)
	}
}
