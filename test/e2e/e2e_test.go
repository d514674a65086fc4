package e2e

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/testutil"
	"github.com/markrai/gitpow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2E_Branches(t *testing.T) {
	h := NewTestHelper(t)
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())

	res := h.Run(repo, "", nil, "branches")
	require.Equal(t, 0, res.ExitCode, res.Stderr)

	var info model.BranchInfo
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &info))
	assert.Equal(t, "main", info.Current)
}

func TestE2E_ExitCodes(t *testing.T) {
	h := NewTestHelper(t)
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())

	res := h.Run(nil, "", map[string]string{"GITPOW_REPOS_ROOT": t.TempDir()}, "--repo", "missing", "status")
	assert.Equal(t, errors.ExitCodeRepositoryNotFound, res.ExitCode)
	assert.Contains(t, res.Stderr, "not found")

	res = h.Run(repo, "", nil, "commit", "-m", "")
	assert.Equal(t, errors.ExitCodeValidation, res.ExitCode)
	assert.Contains(t, res.Stderr, "commit message is required")

	res = h.Run(repo, "", nil, "log", "--count", "--diff-backend", "svn")
	assert.Equal(t, errors.ExitCodeConfig, res.ExitCode)
}

func TestE2E_EnvironmentOverride(t *testing.T) {
	h := NewTestHelper(t)
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())

	res := h.Run(nil, "", map[string]string{"GITPOW_REPOS_ROOT": filepath.Dir(repo.Dir)},
		"--repo", filepath.Base(repo.Dir), "log", "--count")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.JSONEq(t, `{"count": 1}`, res.Stdout)
}

func TestE2E_ResolveConflictFromStdin(t *testing.T) {
	h := NewTestHelper(t)
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.CommitFile("file.txt", "base\n", "add file")
	repo.Git("checkout", "-q", "-b", "other")
	repo.CommitFile("file.txt", "theirs\n", "theirs")
	repo.Git("checkout", "-q", "main")
	repo.CommitFile("file.txt", "mine\n", "mine")
	_, err := repo.TryGit("merge", "other")
	require.Error(t, err)

	res := h.Run(repo, "", nil, "conflicts")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	var c model.Conflicts
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &c))
	require.True(t, c.HasConflicts)
	assert.Equal(t, "file.txt", c.Files[0].Path)
	assert.Equal(t, "both-modified", c.Files[0].Type)

	res = h.Run(repo, "", nil, "resolve", "file.txt")
	assert.Equal(t, errors.ExitCodeValidation, res.ExitCode)

	res = h.Run(repo, "resolved\n", nil, "resolve", "file.txt")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Equal(t, "resolved\n", repo.ReadFile("file.txt"))
	assert.Equal(t, "M  file.txt", repo.Git("status", "--porcelain"))
}
