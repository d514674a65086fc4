package rebase

import (
	"context"
	"testing"

	gperrors "github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/testutil"
	"github.com/markrai/gitpow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLog(t *testing.T) {
	t.Parallel()

	out := "aaaa\x1fAda\x1fada@example.com\x1f2024-01-02T10:00:00+02:00\x1fp1 p2\x1fmerge it\x1e\n" +
		"bbbb\x1fBob\x1fbob@example.com\x1f2024-01-01T12:00:00Z\x1fp0\x1fsubject with \x1f inside\x1e\n" +
		"broken\x1e\n"

	commits := ParseLog(out)
	require.Len(t, commits, 2)
	assert.Equal(t, model.Commit{
		ID:          "aaaa",
		AuthorName:  "Ada",
		AuthorEmail: "ada@example.com",
		AuthoredAt:  "2024-01-02T08:00:00Z",
		Message:     "merge it",
		ParentIDs:   []string{"p1", "p2"},
		IsMerge:     true,
		Branches:    []string{},
	}, commits[0])
	assert.Equal(t, "subject with \x1f inside", commits[1].Message)
	assert.False(t, commits[1].IsMerge)

	assert.Empty(t, ParseLog(""))
}

func featureRepo(t *testing.T) (*testutil.Repo, []string) {
	t.Helper()
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.Git("checkout", "-q", "-b", "feature")
	c1 := repo.CommitFile("a.txt", "a\n", "feature one")
	c2 := repo.CommitFile("b.txt", "b\n", "feature two")
	repo.Git("checkout", "-q", "main")
	repo.Commit("main moves")
	repo.Git("checkout", "-q", "feature")
	return repo, []string{c2, c1}
}

func TestPreviewer_Preview(t *testing.T) {
	repo, want := featureRepo(t)
	p := NewPreviewer(git.NewExecRunner("git", nil), repo.Dir, nil)

	preview, err := p.Preview(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "main", preview.Onto)
	assert.Equal(t, "HEAD", preview.From)
	assert.Equal(t, repo.Git("rev-parse", "main~1"), preview.MergeBase)
	require.Len(t, preview.Commits, 2)
	assert.Equal(t, want[0], preview.Commits[0].ID)
	assert.Equal(t, want[1], preview.Commits[1].ID)
	assert.Equal(t, "feature two", preview.Commits[0].Message)
	assert.Equal(t, "test@example.com", preview.Commits[0].AuthorEmail)
}

func TestPreviewer_DirtyTree(t *testing.T) {
	repo, _ := featureRepo(t)
	repo.WriteFile("a.txt", "dirty\n")
	p := NewPreviewer(git.NewExecRunner("git", nil), repo.Dir, nil)

	_, err := p.Preview(context.Background(), "main", "HEAD")
	assert.ErrorIs(t, err, gperrors.ErrDirtyWorktree)
}

func TestPreviewer_UnknownRevision(t *testing.T) {
	repo, _ := featureRepo(t)
	p := NewPreviewer(git.NewExecRunner("git", nil), repo.Dir, nil)

	_, err := p.Preview(context.Background(), "no-such-branch", "HEAD")
	assert.True(t, gperrors.IsType(err, gperrors.ErrTypeRevision))
}

func TestPreviewer_Plan(t *testing.T) {
	repo, ids := featureRepo(t)
	p := NewPreviewer(git.NewExecRunner("git", nil), repo.Dir, nil)
	ctx := context.Background()

	items := []model.RebasePlanItem{
		{ID: ids[1][:8], Action: ""},
		{ID: ids[0], Action: "SQUASH", Message: "combined"},
	}
	res, err := p.Plan(ctx, "main", "", items, true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.DryRun)
	assert.Equal(t, []model.RebasePlanItem{
		{ID: ids[1], Action: "pick"},
		{ID: ids[0], Action: "squash", Message: "combined"},
	}, res.Plan)

	res, err = p.Plan(ctx, "main", "", items, false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ErrExecutionUnsupported, res.Error)

	_, err = p.Plan(ctx, "main", "", []model.RebasePlanItem{{ID: repo.Git("rev-parse", "main")}}, true)
	assert.True(t, gperrors.IsType(err, gperrors.ErrTypeValidation))

	_, err = p.Plan(ctx, "", "", items, true)
	assert.True(t, gperrors.IsType(err, gperrors.ErrTypeValidation))
	_, err = p.Plan(ctx, "main", "", nil, true)
	assert.True(t, gperrors.IsType(err, gperrors.ErrTypeValidation))
}
