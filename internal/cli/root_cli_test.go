package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"lintcheck/internal/config"
	"lintcheck/internal/flags"

	"github.com/fatih/color"
)

var inputEnv = []string{
	"GITHUB_TOKEN",
	flags.EnvRepoToken,
	flags.EnvRepository,
	flags.EnvSHA,
	flags.EnvWorkspace,
	flags.EnvAPIURL,
	flags.EnvStepSummary,
	flags.EnvPath,
	flags.EnvLinter,
	flags.EnvSelect,
	flags.EnvIgnore,
	flags.EnvMaxLineLength,
	flags.EnvFailurePrefixes,
	flags.EnvCheckName,
	flags.EnvSarif,
	flags.EnvLogLevel,
}

// clearInputs unsets every input so the runner's own environment cannot leak
// into a test. Values are restored on cleanup.
func clearInputs(t *testing.T) {
	t.Helper()
	for _, key := range inputEnv {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Unsetenv(%s): %v", key, err)
		}
	}
}

func withoutEnv(keys ...string) []string {
	out := make([]string, 0, len(os.Environ()))
	for _, e := range os.Environ() {
		skip := false
		for _, key := range keys {
			if strings.HasPrefix(e, key+"=") {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, e)
		}
	}
	return out
}

func runRoot(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	cmd := newRootCmd(config.New())
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	code = -1
	prev := exitFunc
	exitFunc = func(c int) { code = c }
	t.Cleanup(func() { exitFunc = prev })

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return code, out.String(), errOut.String()
}

func writeFlake8Stub(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script flake8 stub")
	}
	path := filepath.Join(t.TempDir(), "flake8")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("WriteFile stub failed: %v", err)
	}
	return path
}

func TestRoot_MissingTokenExitsOneWithoutNetwork(t *testing.T) {
	clearInputs(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer server.Close()

	code, _, stderr := runRoot(t, "--repository", "octo/repo", "--sha", "abc", "--workspace", t.TempDir(), "--api-url", server.URL)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1; stderr=%s", code, stderr)
	}
	if !strings.Contains(stderr, "no GitHub token found") {
		t.Fatalf("expected missing token message; stderr=%s", stderr)
	}
}

func TestRoot_InvalidConfigExitsTwo(t *testing.T) {
	clearInputs(t)
	t.Setenv("GITHUB_TOKEN", "tok")

	code, _, stderr := runRoot(t, "--sha", "abc", "--workspace", t.TempDir())
	if code != 2 {
		t.Fatalf("exit code = %d, want 2; stderr=%s", code, stderr)
	}
	if !strings.Contains(stderr, "repository is required") {
		t.Fatalf("expected validation message; stderr=%s", stderr)
	}
}

func TestRoot_EndToEnd(t *testing.T) {
	clearInputs(t)
	prevNoColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prevNoColor })

	workspace := t.TempDir()
	stub := writeFlake8Stub(t, fmt.Sprintf(`for arg in "$@"; do echo "$arg" >> %q; done
echo '%s/app.py:1:1: F401 unused import'
exit 1
`, filepath.Join(workspace, "args.txt"), workspace))

	var (
		mu      sync.Mutex
		methods []string
		agents  []string
		auth    []string
	)
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		methods = append(methods, r.Method)
		agents = append(agents, r.Header.Get("User-Agent"))
		auth = append(auth, r.Header.Get("Authorization"))
	}
	mux.HandleFunc("POST /api/v3/repos/octo/repo/check-runs", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":5}`)
	})
	mux.HandleFunc("PATCH /api/v3/repos/octo/repo/check-runs/5", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = io.WriteString(w, `{"id":5}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Setenv(flags.EnvRepoToken, "input-token")
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv(flags.EnvRepository, "someone/else")
	t.Setenv(flags.EnvSHA, "deadbeef")
	t.Setenv(flags.EnvWorkspace, workspace)
	t.Setenv(flags.EnvAPIURL, server.URL)
	t.Setenv(flags.EnvLinter, stub)
	t.Setenv(flags.EnvMaxLineLength, "not-a-number")
	t.Setenv(flags.EnvIgnore, "W503")

	code, stdout, stderr := runRoot(t, "--repository", "octo/repo")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1; stderr=%s", code, stderr)
	}
	if !strings.Contains(stdout, "app.py:1:1: [failure] F401 unused import") {
		t.Fatalf("unexpected console output: %s", stdout)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(methods) != 2 || methods[0] != http.MethodPost || methods[1] != http.MethodPatch {
		t.Fatalf("unexpected API calls: %v", methods)
	}
	if auth[0] != "Bearer input-token" {
		t.Fatalf("Authorization = %q, want the repotoken input", auth[0])
	}
	if agents[0] != "lintcheck/dev" {
		t.Fatalf("User-Agent = %q", agents[0])
	}

	raw, err := os.ReadFile(filepath.Join(workspace, "args.txt"))
	if err != nil {
		t.Fatalf("read stub args: %v", err)
	}
	args := string(raw)
	for _, want := range []string{"--select=F\n", "--ignore=W503\n", "--max-line-length=79\n", workspace + "\n"} {
		if !strings.Contains(args, want) {
			t.Fatalf("linter args missing %q:\n%s", want, args)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := runRoot(t, "version")
	if code != -1 {
		t.Fatalf("version must not run the check, exit code = %d", code)
	}
	if !strings.HasPrefix(stdout, "lintcheck dev\n") {
		t.Fatalf("unexpected version output: %q", stdout)
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	// internal/cli -> repo root
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func goExe() string {
	if runtime.GOOS == "windows" {
		return "go.exe"
	}
	return "go"
}

func buildLintcheckBinary(t *testing.T) string {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "lintcheck-test")
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}

	cmd := exec.Command(goExe(), "build", "-o", outPath, "./cmd/lintcheck")
	cmd.Dir = repoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build lintcheck binary: %v; output=%s", err, string(out))
	}

	return outPath
}

func TestBinary_ExitCode1_WhenTokenMissing(t *testing.T) {
	binary := buildLintcheckBinary(t)
	cmd := exec.Command(binary, "--repository", "octo/repo", "--sha", "abc", "--workspace", t.TempDir())
	cmd.Env = withoutEnv(inputEnv...)

	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit; output=%s", string(out))
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v; output=%s", err, err, string(out))
	}
	if code := exitErr.ProcessState.ExitCode(); code != 1 {
		t.Fatalf("expected exit code 1, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "no GitHub token found") {
		t.Fatalf("expected token-required message; output=%s", string(out))
	}
}

func TestBinary_Help_DocumentsInputsAndExitCodes(t *testing.T) {
	binary := buildLintcheckBinary(t)
	cmd := exec.Command(binary, "--help")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("expected zero exit; err=%v; output=%s", err, string(out))
	}

	s := string(out)
	for _, r := range []string{"Exit codes:", "INPUT_REPOTOKEN", "checks: write", "--max-line-length"} {
		if !strings.Contains(s, r) {
			t.Fatalf("expected --help to contain %q; output=%s", r, s)
		}
	}
}
