package staging

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markrai/gitpow/internal/diff"
	gperrors "github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	r.calls = append(r.calls, args)
	return "", nil
}

const threeHunks = `diff --git a/f.txt b/f.txt
index 1111111..2222222 100644
--- a/f.txt
+++ b/f.txt
@@ -1,3 +1,4 @@
 a
+added1
 b
 c
@@ -10,3 +11,4 @@ func x
 j
+added2
 k
 l
@@ -20,3 +22,4 @@
 t
+added3
 u
 v
`

func TestBuildPatch_ShiftsNewStarts(t *testing.T) {
	t.Parallel()

	fd := diff.ParseUnified("f.txt", threeHunks)
	require.Len(t, fd.Hunks, 3)

	patch := BuildPatch(fd, []int{0, 2}, false)
	assert.Equal(t, `diff --git a/f.txt b/f.txt
index 1111111..2222222 100644
--- a/f.txt
+++ b/f.txt
@@ -1,3 +1,4 @@
 a
+added1
 b
 c
@@ -20,3 +21,4 @@
 t
+added3
 u
 v
`, patch)
}

func TestBuildPatch_ReverseShiftsOldStarts(t *testing.T) {
	t.Parallel()

	fd := diff.ParseUnified("f.txt", threeHunks)
	patch := BuildPatch(fd, []int{2}, true)
	assert.Contains(t, patch, "\n@@ -22,3 +22,4 @@\n")
	assert.NotContains(t, patch, "added1")
}

func TestBuildPatch_NothingSelected(t *testing.T) {
	t.Parallel()

	fd := diff.ParseUnified("f.txt", threeHunks)
	assert.Equal(t, "", BuildPatch(fd, []int{7, -1}, false))
	assert.Equal(t, "", BuildPatch(fd, nil, false))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 2, 5}, normalize([]int{5, 2, 0, 2}))
	assert.Empty(t, normalize(nil))
}

func TestController_NoOps(t *testing.T) {
	t.Parallel()

	rr := &recordingRunner{}
	c := NewController(rr, "/repo", nil)
	ctx := context.Background()

	require.NoError(t, c.Stage(ctx, "f.txt", []int{}))
	require.NoError(t, c.Unstage(ctx, "f.txt", []int{}))
	assert.Empty(t, rr.calls)

	assert.ErrorIs(t, c.Stage(ctx, "", nil), gperrors.ErrEmptyPath)
	assert.ErrorIs(t, c.Unstage(ctx, "", nil), gperrors.ErrEmptyPath)

	require.NoError(t, c.Stage(ctx, "f.txt", nil))
	assert.Equal(t, [][]string{{"add", "--", "f.txt"}}, rr.calls)
}

func TestController_Commit(t *testing.T) {
	t.Parallel()

	rr := &recordingRunner{}
	c := NewController(rr, "/repo", nil)

	_, err := c.Commit(context.Background(), "   \n")
	assert.ErrorIs(t, err, gperrors.ErrEmptyMessage)
	assert.Empty(t, rr.calls)
}

func threeHunkRepo(t *testing.T) *testutil.Repo {
	t.Helper()
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.CommitFile("f.txt", testutil.Lines("line", 30), "add f")

	lines := strings.Split(strings.TrimSuffix(testutil.Lines("line", 30), "\n"), "\n")
	lines[1] = "c2"
	lines[14] = "c15"
	lines[27] = "c28"
	repo.WriteFile("f.txt", strings.Join(lines, "\n")+"\n")
	return repo
}

func TestController_StageSelectedHunks(t *testing.T) {
	repo := threeHunkRepo(t)
	c := NewController(git.NewExecRunner("git", nil), repo.Dir, nil)

	require.NoError(t, c.Stage(context.Background(), "f.txt", []int{0, 2}))

	staged := repo.Git("diff", "--cached", "--", "f.txt")
	assert.Contains(t, staged, "+c2")
	assert.Contains(t, staged, "+c28")
	assert.NotContains(t, staged, "+c15")

	unstaged := repo.Git("diff", "--", "f.txt")
	assert.Contains(t, unstaged, "+c15")
	assert.NotContains(t, unstaged, "+c2\n")
	assert.NotContains(t, unstaged, "+c28")

	leftovers, err := filepath.Glob(filepath.Join(repo.Dir, ".git", "gitpow-patch-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestController_UnstageSelectedHunks(t *testing.T) {
	repo := threeHunkRepo(t)
	c := NewController(git.NewExecRunner("git", nil), repo.Dir, nil)
	ctx := context.Background()

	require.NoError(t, c.Stage(ctx, "f.txt", nil))
	require.NoError(t, c.Unstage(ctx, "f.txt", []int{1}))

	staged := repo.Git("diff", "--cached", "--", "f.txt")
	assert.Contains(t, staged, "+c2")
	assert.Contains(t, staged, "+c28")
	assert.NotContains(t, staged, "+c15")
	assert.Contains(t, repo.ReadFile("f.txt"), "c15\n", "working tree is untouched")
}

func TestController_UnstageWholeFile(t *testing.T) {
	repo := threeHunkRepo(t)
	c := NewController(git.NewExecRunner("git", nil), repo.Dir, nil)
	ctx := context.Background()

	require.NoError(t, c.Stage(ctx, "f.txt", nil))
	assert.Equal(t, "M  f.txt", repo.Git("status", "--porcelain"))
	require.NoError(t, c.Unstage(ctx, "f.txt", nil))
	assert.Equal(t, "M f.txt", repo.Git("status", "--porcelain"))
}

func TestController_UnstageOnUnbornHead(t *testing.T) {
	cfg := testutil.DefaultRepoConfig()
	cfg.InitialCommit = false
	repo := testutil.NewRepo(t, cfg)
	repo.WriteFile("new.txt", "x\n")
	repo.Git("add", "new.txt")
	c := NewController(git.NewExecRunner("git", nil), repo.Dir, nil)

	require.NoError(t, c.Unstage(context.Background(), "new.txt", nil))
	assert.Equal(t, "?? new.txt", repo.Git("status", "--porcelain"))
}

func TestController_CommitRecordsIndex(t *testing.T) {
	repo := threeHunkRepo(t)
	c := NewController(git.NewExecRunner("git", nil), repo.Dir, nil)
	ctx := context.Background()

	require.NoError(t, c.Stage(ctx, "f.txt", nil))
	id, err := c.Commit(ctx, "  edit f  \n")
	require.NoError(t, err)
	assert.Equal(t, repo.Head(), id)
	assert.Equal(t, "edit f", repo.Git("log", "-1", "--format=%s"))
}

func TestController_ApplyFailureSurfaces(t *testing.T) {
	t.Parallel()

	failing := &failingApplyRunner{diff: threeHunks}
	c := NewController(failing, t.TempDir(), nil)
	err := c.Stage(context.Background(), "f.txt", []int{0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patch does not apply")
}

type failingApplyRunner struct {
	diff string
}

func (f *failingApplyRunner) Run(_ context.Context, dir string, args ...string) (string, error) {
	switch args[0] {
	case "diff":
		return f.diff, nil
	case "rev-parse":
		return dir + "\n", nil
	case "apply":
		return "", errors.New("patch does not apply")
	}
	return "", errors.New("unexpected call")
}
