// Package integration provides integration tests for the reel commands.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

var (
	reelBinary     string
	reelBinaryOnce sync.Once
	reelBinaryErr  error
)

// getReelBinary builds the reel binary once and returns its path.
func getReelBinary(t *testing.T) string {
	t.Helper()
	reelBinaryOnce.Do(func() {
		// Get module root directory
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			reelBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "reel-test-*")
		if err != nil {
			reelBinaryErr = err
			return
		}
		reelBinary = filepath.Join(tmpDir, "reel")

		cmd := exec.Command("go", "build", "-o", reelBinary, "./cmd/reel")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			reelBinaryErr = &buildError{output: string(output), err: err}
			return
		}
	})
	if reelBinaryErr != nil {
		t.Fatalf("failed to build reel: %v", reelBinaryErr)
	}
	return reelBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

const filmsJSON = `{
  "entities": [
    {"id": "m1", "kind": "Movie", "title": "Rear Window", "year": 1954},
    {"id": "m2", "kind": "Movie", "title": "Vertigo", "year": 1958},
    {"id": "m3", "kind": "Movie", "title": "Psycho", "year": 1960},
    {"id": "p1", "kind": "Person", "name": "Alfred Hitchcock", "betweennessCentrality": 0.9},
    {"id": "p2", "kind": "Person", "name": "James Stewart", "betweennessCentrality": 0.4},
    {"id": "p3", "kind": "Person", "name": "Anthony Perkins", "betweennessCentrality": 0.1}
  ],
  "relations": [
    {"sourceId": "p1", "targetId": "m1", "role": "DIRECTED"},
    {"sourceId": "p1", "targetId": "m2", "role": "DIRECTED"},
    {"sourceId": "p1", "targetId": "m3", "role": "DIRECTED"},
    {"sourceId": "p2", "targetId": "m1", "role": "ACTED_IN"},
    {"sourceId": "p2", "targetId": "m2", "role": "ACTED_IN"},
    {"sourceId": "p3", "targetId": "m3", "role": "ACTED_IN"},
    {"sourceId": "p3", "targetId": "ghost", "role": "ACTED_IN"}
  ]
}`

// env is an isolated home for one test: its own config and catalog.
type env struct {
	dir string
}

// setupEnv creates a temp directory with films.json and XDG dirs inside it.
func setupEnv(t *testing.T) *env {
	t.Helper()
	e := &env{dir: t.TempDir()}
	if err := os.WriteFile(e.path("films.json"), []byte(filmsJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return e
}

func (e *env) path(name string) string {
	return filepath.Join(e.dir, name)
}

// run executes reel and returns stdout and stderr separately so JSON
// output can be parsed.
func (e *env) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := exec.Command(getReelBinary(t), args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+e.path("config"),
		"XDG_DATA_HOME="+e.path("data"),
		"REEL_LOG_LEVEL=error",
	)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.String(), errOut.String(), err
}

// mustRun runs reel and fails the test on a non-zero exit.
func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("reel %v failed: %v\nstdout: %s\nstderr: %s", args, err, out, errOut)
	}
	return out
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}
}

func exitCode(err error) int {
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}
