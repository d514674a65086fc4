package diff

import (
	"context"
	"testing"

	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/testutil"
	"github.com/markrai/gitpow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommitDiffer(t *testing.T, repo *testutil.Repo) *CommitDiffer {
	t.Helper()
	r, err := git.Open(repo.Dir)
	require.NoError(t, err)
	return &CommitDiffer{Repo: r}
}

func TestCommitDiffer_RootCommit(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	d := newCommitDiffer(t, repo)

	fd, err := d.FileDiff(context.Background(), repo.Head(), "README.md")
	require.NoError(t, err)

	assert.Equal(t, "--- /dev/null\n+++ b/README.md\n@@ -0,0 +1 @@\n+# Test Repository\n", fd.Diff)
	require.Len(t, fd.Hunks, 1)
	assert.Equal(t, 0, fd.Hunks[0].OldStart)
	assert.Equal(t, 1, fd.Hunks[0].NewStart)
	assert.Equal(t, 1, fd.Hunks[0].NewCount)
	assert.Equal(t, 2, fd.Hunks[0].LineStart)
}

func TestCommitDiffer_Modification(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.CommitFile("f.txt", testutil.Lines("line", 10), "add f")
	changed := repo.CommitFile("f.txt", numbered(10, map[int]string{5: "changed5"}), "edit f")
	d := newCommitDiffer(t, repo)

	fd, err := d.FileDiff(context.Background(), changed, "f.txt")
	require.NoError(t, err)

	require.Len(t, fd.Hunks, 1)
	h := fd.Hunks[0]
	assert.Equal(t, []int{2, 7, 2, 7}, []int{h.OldStart, h.OldCount, h.NewStart, h.NewCount})
	assert.Contains(t, h.Lines, "-line5")
	assert.Contains(t, h.Lines, "+changed5")
	assert.Contains(t, fd.Diff, "--- a/f.txt\n+++ b/f.txt\n")
}

func TestCommitDiffer_Deletion(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.CommitFile("f.txt", "a\nb\n", "add f")
	repo.Git("rm", "-q", "f.txt")
	removed := repo.Commit("remove f")
	d := newCommitDiffer(t, repo)

	fd, err := d.FileDiff(context.Background(), removed, "f.txt")
	require.NoError(t, err)

	assert.Equal(t, "--- a/f.txt\n+++ /dev/null\n@@ -1,2 +0,0 @@\n-a\n-b\n", fd.Diff)
}

func TestCommitDiffer_UntouchedPath(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	head := repo.CommitFile("other.txt", "x\n", "add other")
	d := newCommitDiffer(t, repo)

	fd, err := d.FileDiff(context.Background(), head, "README.md")
	require.NoError(t, err)
	assert.Equal(t, "", fd.Diff)
	assert.NotNil(t, fd.Hunks)
	assert.Empty(t, fd.Hunks)
}

func TestCommitDiffer_Validation(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	d := newCommitDiffer(t, repo)

	_, err := d.FileDiff(context.Background(), "HEAD", "")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

}

func TestCommitDiffer_UnknownRevision(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	d := newCommitDiffer(t, repo)
	ctx := context.Background()

	fd, err := d.FileDiff(ctx, "no-such-branch", "README.md")
	require.NoError(t, err)
	assert.Equal(t, "", fd.Diff)
	assert.Empty(t, fd.Hunks)
	require.Len(t, fd.Degraded, 1)
	assert.Equal(t, model.DegradedMissingRevision, fd.Degraded[0].Kind)

	files, err := d.Files(ctx, "no-such-branch")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	st, err := d.Stats(ctx, "no-such-branch")
	require.NoError(t, err)
	assert.Equal(t, &model.CommitStats{}, st)
}

func TestCommitDiffer_FilesAndStats(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.CommitFile("gone.txt", "bye\n", "add gone")
	repo.WriteFile("README.md", "# Changed\n")
	repo.WriteFile("a.txt", "1\n2\n")
	repo.Git("rm", "-q", "gone.txt")
	repo.Git("add", "-A")
	head := repo.Commit("mixed")
	d := newCommitDiffer(t, repo)

	files, err := d.Files(context.Background(), head)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.FileChange{
		{Path: "a.txt", Status: "added"},
		{Path: "README.md", Status: "modified"},
		{Path: "gone.txt", Status: "removed"},
	}, files)

	stats, err := d.Stats(context.Background(), head)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FilesChanged)
	// a.txt +2, README.md -1 +1, gone.txt -1
	assert.Equal(t, 5, stats.LinesChanged)
}

func TestCommitDiffer_EmptyFile(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	added := repo.CommitFile("empty.txt", "", "add empty")
	filled := repo.CommitFile("empty.txt", "a\n", "fill empty")
	repo.WriteFile("empty.txt", "")
	repo.Git("add", "empty.txt")
	emptied := repo.Commit("empty it again")
	repo.Git("rm", "-q", "empty.txt")
	removed := repo.Commit("remove empty")
	d := newCommitDiffer(t, repo)
	ctx := context.Background()

	t.Run("added", func(t *testing.T) {
		fd, err := d.FileDiff(ctx, added, "empty.txt")
		require.NoError(t, err)
		assert.Equal(t, "--- /dev/null\n+++ b/empty.txt\n@@ -0,0 +1,0 @@\n", fd.Diff)
		require.Len(t, fd.Hunks, 1)
		assert.Equal(t, model.DiffHunk{
			OldStart: 0, OldCount: 0, NewStart: 1, NewCount: 0,
			Lines:     []string{"@@ -0,0 +1,0 @@"},
			LineStart: 2,
		}, fd.Hunks[0])
		assert.False(t, fd.Binary)
		assert.Empty(t, fd.Degraded)
	})

	t.Run("filled", func(t *testing.T) {
		fd, err := d.FileDiff(ctx, filled, "empty.txt")
		require.NoError(t, err)
		assert.Equal(t, "--- a/empty.txt\n+++ b/empty.txt\n@@ -0,0 +1 @@\n+a\n", fd.Diff)
		assert.Empty(t, fd.Degraded)
	})

	t.Run("emptied", func(t *testing.T) {
		fd, err := d.FileDiff(ctx, emptied, "empty.txt")
		require.NoError(t, err)
		assert.Equal(t, "--- a/empty.txt\n+++ b/empty.txt\n@@ -1 +0,0 @@\n-a\n", fd.Diff)
	})

	t.Run("removed", func(t *testing.T) {
		fd, err := d.FileDiff(ctx, removed, "empty.txt")
		require.NoError(t, err)
		assert.Equal(t, "--- a/empty.txt\n+++ /dev/null\n@@ -1,0 +0,0 @@\n", fd.Diff)
		require.Len(t, fd.Hunks, 1)
		assert.Equal(t, []int{1, 0, 0, 0},
			[]int{fd.Hunks[0].OldStart, fd.Hunks[0].OldCount, fd.Hunks[0].NewStart, fd.Hunks[0].NewCount})
		assert.Empty(t, fd.Degraded)
	})
}
