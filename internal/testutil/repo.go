// Package testutil builds throwaway git repositories for integration tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// RepoConfig holds configuration for creating a test repository
type RepoConfig struct {
	UserEmail     string
	UserName      string
	InitialBranch string
	// InitialCommit commits README.md when true.
	InitialCommit bool
	Remotes       map[string]string
}

// DefaultRepoConfig returns a default repo configuration
func DefaultRepoConfig() RepoConfig {
	return RepoConfig{
		UserEmail:     "test@example.com",
		UserName:      "Test User",
		InitialBranch: "main",
		InitialCommit: true,
		Remotes:       map[string]string{},
	}
}

// Repo is a git working copy under t.TempDir().
type Repo struct {
	t   *testing.T
	Dir string

	clock time.Time
}

// RequireGit skips the test when no git binary is available.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// NewRepo creates a new git repository with initial setup
func NewRepo(t *testing.T, config RepoConfig) *Repo {
	t.Helper()
	RequireGit(t)

	r := &Repo{
		t:     t,
		Dir:   t.TempDir(),
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	r.Git("init", "-q")
	r.Git("symbolic-ref", "HEAD", "refs/heads/"+config.InitialBranch)
	r.Git("config", "user.email", config.UserEmail)
	r.Git("config", "user.name", config.UserName)
	r.Git("config", "commit.gpgsign", "false")
	r.Git("config", "core.autocrlf", "false")

	if config.InitialCommit {
		r.WriteFile("README.md", "# Test Repository\n")
		r.Git("add", "README.md")
		r.Commit("chore: initial commit")
	}

	for name, url := range config.Remotes {
		r.Git("remote", "add", name, url)
	}

	return r
}

// Git runs git in the repository and returns trimmed stdout.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	out, err := r.TryGit(args...)
	if err != nil {
		r.t.Fatalf("git %v failed: %v\nOutput: %s", args, err, out)
	}
	return strings.TrimSpace(out)
}

// TryGit runs git and returns combined output and the error, if any.
func (r *Repo) TryGit(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	date := r.clock.Format(time.RFC3339)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE="+date,
		"GIT_COMMITTER_DATE="+date,
		"GIT_TERMINAL_PROMPT=0",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// WriteFile creates or replaces a file relative to the repository root.
func (r *Repo) WriteFile(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.Dir, filepath.FromSlash(name))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0644))
}

// ReadFile reads a file relative to the repository root.
func (r *Repo) ReadFile(name string) string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Dir, filepath.FromSlash(name)))
	require.NoError(r.t, err)
	return string(data)
}

// Commit commits everything staged and returns the new HEAD id. Each commit
// is one minute after the previous one so committer times are distinct.
func (r *Repo) Commit(message string) string {
	r.t.Helper()
	r.clock = r.clock.Add(time.Minute)
	r.Git("commit", "-q", "--allow-empty", "-m", message)
	return r.Git("rev-parse", "HEAD")
}

// CommitFile writes name, stages it and commits.
func (r *Repo) CommitFile(name, content, message string) string {
	r.t.Helper()
	r.WriteFile(name, content)
	r.Git("add", "--", name)
	return r.Commit(message)
}

// SetClock moves the commit clock used by later commits.
func (r *Repo) SetClock(at time.Time) {
	r.clock = at
}

// Head returns the HEAD commit id.
func (r *Repo) Head() string {
	r.t.Helper()
	return r.Git("rev-parse", "HEAD")
}

// Lines joins numbered lines "prefix1".."prefixN" with a trailing newline.
func Lines(prefix string, n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%s%d\n", prefix, i)
	}
	return sb.String()
}

// FakeGit writes an executable script that answers git invocations by
// argument pattern and returns its path. Unmatched invocations exit 1.
func FakeGit(t *testing.T, cases map[string]FakeResponse) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "git")

	script := "#!/bin/sh\n" +
		"# drop the leading -c core.quotepath=off\n" +
		"if [ \"$1\" = \"-c\" ]; then shift 2; fi\n" +
		"args=\"$*\"\n" +
		"case \"$args\" in\n"
	for pattern, resp := range cases {
		script += fmt.Sprintf("  %s)\n", pattern)
		if resp.Stdout != "" {
			script += fmt.Sprintf("    printf '%%s\\n' '%s'\n", resp.Stdout)
		}
		if resp.Stderr != "" {
			script += fmt.Sprintf("    printf '%%s\\n' '%s' >&2\n", resp.Stderr)
		}
		script += fmt.Sprintf("    exit %d\n    ;;\n", resp.ExitCode)
	}
	script += "  *)\n    echo \"unexpected: $args\" >&2\n    exit 1\n    ;;\nesac\n"

	require.NoError(t, os.WriteFile(bin, []byte(script), 0755))
	return bin
}

// FakeResponse is the canned result of one FakeGit pattern.
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
}
