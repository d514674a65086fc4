package stash

import (
	"context"
	"testing"

	gperrors "github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/testutil"
	"github.com/markrai/gitpow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	ret := m.Called(ctx, dir, args)
	return ret.String(0), ret.Error(1)
}

func TestParseList(t *testing.T) {
	t.Parallel()

	out := "stash@{0}\x1fOn main: wip\x1f2024-01-02T10:00:00+02:00\n" +
		"garbage line\n" +
		"stash@{1}\x1fWIP on main: abc123 first\x1f2024-01-01T12:00:00Z\n"

	assert.Equal(t, []model.StashEntry{
		{Ref: "stash@{0}", Message: "On main: wip", Date: "2024-01-02T08:00:00Z"},
		{Ref: "stash@{1}", Message: "WIP on main: abc123 first", Date: "2024-01-01T12:00:00Z"},
	}, ParseList(out))

	assert.Equal(t, []model.StashEntry{}, ParseList(""))
}

func TestManager_PushArgs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := new(MockRunner)
	r.On("Run", ctx, "/repo", []string{"stash", "push", "-m", "save me"}).Return("Saved\n", nil)
	r.On("Run", ctx, "/repo", []string{"stash", "push"}).Return("Saved\n", nil)

	m := NewManager(r, "/repo", nil)
	out, err := m.Push(ctx, "  save me ")
	require.NoError(t, err)
	assert.Equal(t, "Saved", out)

	_, err = m.Push(ctx, "")
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestManager_RejectsBadRefs(t *testing.T) {
	t.Parallel()

	r := new(MockRunner)
	m := NewManager(r, "/repo", nil)
	for _, ref := range []string{"", "stash@{x}", "--all", "stash@{0}; rm -rf"} {
		_, err := m.Apply(context.Background(), ref)
		assert.True(t, gperrors.IsType(err, gperrors.ErrTypeValidation), ref)
		_, err = m.Drop(context.Background(), ref)
		assert.True(t, gperrors.IsType(err, gperrors.ErrTypeValidation), ref)
	}
	assert.Empty(t, r.Calls)
}

func TestManager_RoundTrip(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	m := NewManager(git.NewExecRunner("git", nil), repo.Dir, nil)
	ctx := context.Background()

	entries, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	repo.WriteFile("README.md", "first change\n")
	_, err = m.Push(ctx, "first")
	require.NoError(t, err)
	repo.WriteFile("README.md", "second change\n")
	_, err = m.Push(ctx, "second")
	require.NoError(t, err)

	entries, err = m.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "stash@{0}", entries[0].Ref)
	assert.Contains(t, entries[0].Message, "second")
	assert.NotEmpty(t, entries[0].Date)

	_, err = m.Apply(ctx, "stash@{1}")
	require.NoError(t, err)
	assert.Equal(t, "first change\n", repo.ReadFile("README.md"))
	repo.Git("checkout", "--", "README.md")

	_, err = m.Drop(ctx, "stash@{1}")
	require.NoError(t, err)

	_, err = m.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second change\n", repo.ReadFile("README.md"))

	entries, err = m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
