//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// turtlesoupServer manages a running turtlesoup server process.
type turtlesoupServer struct {
	cmd     *exec.Cmd
	dataDir string
	address string
	logFile string
}

// startTurtlesoup launches the binary with no oracle key and waits for it to
// become healthy. Configuration is passed through the environment only.
func startTurtlesoup(t *testing.T) *turtlesoupServer {
	t.Helper()
	requireTurtlesoup(t)

	dataDir := t.TempDir()
	port := freePort(t)
	logFile := filepath.Join(dataDir, "turtlesoup.log")

	cmd := exec.Command(turtlesoupBin, "serve")
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("TURTLESOUP_PORT=%d", port),
		"TURTLESOUP_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"),
		"TURTLESOUP_ENV_FILE="+filepath.Join(dataDir, "nonexistent.env"),
		"TURTLESOUP_TRANSCRIPT_PATH="+filepath.Join(dataDir, "turtlesoup.db"),
		"TURTLESOUP_ORACLE_PROVIDER=openai",
		"OPENAI_API_KEY=",
	)

	lf, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start turtlesoup: %v", err)
	}

	s := &turtlesoupServer{
		cmd:     cmd,
		dataDir: dataDir,
		address: fmt.Sprintf("127.0.0.1:%d", port),
		logFile: logFile,
	}

	t.Cleanup(func() {
		s.stop()
		lf.Close()
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		logs, _ := os.ReadFile(logFile)
		t.Fatalf("turtlesoup not healthy: %v\n%s", err, logs)
	}

	return s
}

func (s *turtlesoupServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

func (s *turtlesoupServer) baseURL() string {
	return fmt.Sprintf("http://%s/api/v1", s.address)
}

func (s *turtlesoupServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/health"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("turtlesoup not healthy after %s", timeout)
}

// call performs a JSON request against the running server and decodes the
// response into out when non-nil.
func (s *turtlesoupServer) call(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, s.baseURL()+path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// runCLI executes a turtlesoup subcommand and returns its stdout.
func runCLI(t *testing.T, env []string, args ...string) string {
	t.Helper()
	requireTurtlesoup(t)

	cmd := exec.Command(turtlesoupBin, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("turtlesoup %v: %v\n%s", args, err, stderr.String())
	}
	return stdout.String()
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
