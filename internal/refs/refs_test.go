package refs

import (
	"context"
	"testing"
	"time"

	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSortBranches(t *testing.T) {
	t.Parallel()

	got := SortBranches([]string{"zeta", "main", "apple", "master"})
	assert.Equal(t, []string{"main", "master", "apple", "zeta"}, got)

	got = SortBranches([]string{"develop", "b", "main", "b", "a", "develop"})
	assert.Equal(t, []string{"main", "develop", "a", "b"}, got)

	assert.Empty(t, SortBranches(nil))
}

func TestRank(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Rank("main"))
	assert.Equal(t, 1, Rank("master"))
	assert.Equal(t, 2, Rank("develop"))
	assert.Equal(t, 10, Rank("origin/main"))
}

func pairGen() *rapid.Generator[Pair] {
	return rapid.Custom(func(t *rapid.T) Pair {
		return Pair{
			Name: rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "name"),
			ID:   rapid.SampledFrom([]string{"", "aaaa", "bbbb", "cccc"}).Draw(t, "id"),
		}
	})
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		pairs := rapid.SliceOfN(pairGen(), 0, 12).Draw(t, "pairs")
		perm := rapid.Permutation(pairs).Draw(t, "perm")
		if Fingerprint(pairs) != Fingerprint(perm) {
			t.Fatalf("fingerprint depends on order: %v vs %v", pairs, perm)
		}
	})
}

func TestFingerprint_SensitiveToChanges(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		pairs := rapid.SliceOfNDistinct(pairGen(), 1, 10, func(p Pair) string { return p.Name }).Draw(t, "pairs")
		base := Fingerprint(pairs)

		// moving a branch
		i := rapid.IntRange(0, len(pairs)-1).Draw(t, "i")
		moved := append([]Pair(nil), pairs...)
		moved[i].ID = moved[i].ID + "ff"
		if Fingerprint(moved) == base {
			t.Fatalf("moving %q did not change the fingerprint", pairs[i].Name)
		}

		// deleting a branch
		deleted := append(append([]Pair(nil), pairs[:i]...), pairs[i+1:]...)
		if Fingerprint(deleted) == base {
			t.Fatalf("deleting %q did not change the fingerprint", pairs[i].Name)
		}

		// creating a branch
		created := append(append([]Pair(nil), pairs...), Pair{Name: "NEW", ID: "dddd"})
		if Fingerprint(created) == base {
			t.Fatal("creating a branch did not change the fingerprint")
		}
	})
}

func TestFingerprint_AbsentIDUsesName(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, Fingerprint([]Pair{{Name: "a"}}), Fingerprint([]Pair{{Name: "b"}}))
	assert.NotEqual(t, Fingerprint([]Pair{{Name: "a"}}), Fingerprint([]Pair{{Name: "a", ID: "x"}}))
	assert.Equal(t, "0", Fingerprint(nil))
}

func newBuilder(t *testing.T, repo *testutil.Repo, now time.Time) *Builder {
	t.Helper()
	r, err := git.Open(repo.Dir)
	require.NoError(t, err)
	b := NewBuilder(r, 0, nil)
	b.Now = func() time.Time { return now }
	return b
}

func TestBuilder_Metadata(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.Git("branch", "merged")
	repo.Commit("main moves on")
	repo.Git("branch", "same")
	repo.Git("checkout", "-q", "-b", "topic")
	repo.CommitFile("topic.txt", "t\n", "topic work")
	repo.Git("checkout", "-q", "main")
	repo.Git("update-ref", "refs/remotes/origin/main", "main")
	repo.Git("symbolic-ref", "refs/remotes/origin/HEAD", "refs/remotes/origin/main")

	info, err := newBuilder(t, repo, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "main", info.Current)
	assert.Equal(t, repo.Head(), info.Head)
	assert.Equal(t, []string{"main", "merged", "origin/main", "same", "topic"}, info.Branches)
	assert.NotEmpty(t, info.RefsFingerprint)

	assert.True(t, info.Metadata["merged"].IsMerged)
	assert.False(t, info.Metadata["same"].IsMerged, "equal tips are not merged")
	assert.False(t, info.Metadata["main"].IsMerged)
	assert.False(t, info.Metadata["topic"].IsMerged)

	for name, md := range info.Metadata {
		assert.False(t, md.IsStale, name)
		assert.False(t, md.IsUnborn, name)
		require.NotNil(t, md.LastCommitAt, name)
	}
	assert.Equal(t, "2024-01-01T12:02:00Z", *info.Metadata["main"].LastCommitAt)
}

func TestBuilder_Staleness(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())

	info, err := newBuilder(t, repo, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)).Build(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Metadata["main"].IsStale)

	// exactly 90 days is not stale yet
	info, err = newBuilder(t, repo, time.Date(2024, 3, 31, 12, 1, 0, 0, time.UTC)).Build(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Metadata["main"].IsStale)
}

func TestBuilder_FingerprintTracksRefs(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	build := func() string {
		info, err := newBuilder(t, repo, now).Build(context.Background())
		require.NoError(t, err)
		return info.RefsFingerprint
	}

	first := build()
	assert.Equal(t, first, build())

	repo.Git("branch", "extra")
	withBranch := build()
	assert.NotEqual(t, first, withBranch)

	repo.Commit("move main")
	assert.NotEqual(t, withBranch, build())
}

func TestBuilder_UnbornAndDetached(t *testing.T) {
	cfg := testutil.DefaultRepoConfig()
	cfg.InitialCommit = false
	cfg.InitialBranch = "trunk"
	repo := testutil.NewRepo(t, cfg)

	info, err := newBuilder(t, repo, time.Now()).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "trunk", info.Current)
	assert.Empty(t, info.Branches)
	assert.Empty(t, info.Head)

	repo.Commit("first")
	repo.Git("checkout", "-q", "--detach")
	info, err = newBuilder(t, repo, time.Now()).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HEAD", info.Current)
	assert.Equal(t, repo.Head(), info.Head)
}
