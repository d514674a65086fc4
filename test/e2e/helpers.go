package e2e

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/markrai/gitpow/internal/testutil"
)

// TestHelper provides utilities for E2E tests
type TestHelper struct {
	t       *testing.T
	binPath string
	config  string
}

// NewTestHelper builds the binary and returns a helper using a private
// config file.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	testutil.RequireGit(t)
	return &TestHelper{
		t:       t,
		binPath: buildBinary(t),
		config:  filepath.Join(t.TempDir(), "config.yaml"),
	}
}

// buildBinary 构建 gitpow 可执行文件并返回路径。
func buildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "gitpow-bin")
	if runtime.GOOS == "windows" {
		binPath += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", binPath, "github.com/markrai/gitpow")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v, output: %s", err, string(out))
	}
	return binPath
}

// Result is the outcome of one gitpow invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes gitpow against repo with the given arguments, stdin and
// extra environment.
func (h *TestHelper) Run(repo *testutil.Repo, stdin string, env map[string]string, args ...string) Result {
	h.t.Helper()
	full := []string{"--config", h.config}
	if repo != nil {
		full = append(full, "--repos-root", filepath.Dir(repo.Dir), "--repo", filepath.Base(repo.Dir))
	}
	cmd := exec.Command(h.binPath, append(full, args...)...)

	cmdEnv := os.Environ()
	for k, v := range env {
		cmdEnv = append(cmdEnv, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = cmdEnv
	cmd.Stdin = bytes.NewBufferString(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.t.Fatalf("failed to run gitpow: %v", err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout, res.Stderr = stdout.String(), stderr.String()
	return res
}
