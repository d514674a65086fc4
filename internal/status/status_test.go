package status

import (
	"context"
	"errors"
	"testing"

	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/testutil"
	"github.com/markrai/gitpow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner 按调用顺序返回预设结果。
type mockRunner struct {
	outputs []string
	errs    []error
	calls   [][]string
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	idx := len(m.calls)
	m.calls = append(m.calls, args)
	if idx >= len(m.outputs) {
		return "", errors.New("unexpected call")
	}
	return m.outputs[idx], m.errs[idx]
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want model.StatusFile
		ok   bool
	}{
		{
			name: "staged modification",
			line: "M  clean.txt",
			want: model.StatusFile{Path: "clean.txt", Status: "M ", Staged: true, Type: model.StatusModified},
			ok:   true,
		},
		{
			name: "unstaged modification",
			line: " M src/a.go",
			want: model.StatusFile{Path: "src/a.go", Status: " M", Unstaged: true, Type: model.StatusModified},
			ok:   true,
		},
		{
			name: "rename",
			line: "R  old.txt -> new.txt",
			want: model.StatusFile{Path: "new.txt", OldPath: "old.txt", Status: "R ", Staged: true, Type: model.StatusRenamed},
			ok:   true,
		},
		{
			name: "untracked",
			line: "?? notes.md",
			want: model.StatusFile{Path: "notes.md", Status: "??", Type: model.StatusUntracked},
			ok:   true,
		},
		{
			name: "added then modified",
			line: "AM new.go",
			want: model.StatusFile{Path: "new.go", Status: "AM", Staged: true, Unstaged: true, Type: model.StatusAdded},
			ok:   true,
		},
		{
			name: "deleted",
			line: " D gone.txt",
			want: model.StatusFile{Path: "gone.txt", Status: " D", Unstaged: true, Type: model.StatusDeleted},
			ok:   true,
		},
		{
			name: "quoted path",
			line: `?? "with \"quote\".txt"`,
			want: model.StatusFile{Path: `with "quote".txt`, Status: "??", Type: model.StatusUntracked},
			ok:   true,
		},
		{name: "too short", line: "M a", ok: false},
		{name: "missing separator", line: "MMfile.txt", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseLine_QuotedRename(t *testing.T) {
	t.Parallel()

	file, ok := ParseLine(`R  "old name.txt" -> "a b.txt"`)
	require.True(t, ok)
	assert.Equal(t, "a b.txt", file.Path)
	assert.Equal(t, "old name.txt", file.OldPath)
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	st := Parse("M  a.txt\nbogus\n?? b.txt\n\n")
	require.Len(t, st.Files, 2)
	assert.Equal(t, "a.txt", st.Files[0].Path)
	assert.Equal(t, "b.txt", st.Files[1].Path)
	require.Len(t, st.Degraded, 1)
	assert.Equal(t, model.DegradedMalformedStatusLine, st.Degraded[0].Kind)
	assert.Equal(t, "bogus", st.Degraded[0].Detail)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	st := Parse("")
	assert.NotNil(t, st.Files)
	assert.Empty(t, st.Files)
	assert.Empty(t, st.Degraded)
}

func TestReader_WithMockRunner(t *testing.T) {
	t.Parallel()

	mr := &mockRunner{
		outputs: []string{"UU conflicted.txt\n", ""},
		errs:    []error{nil, nil},
	}
	r := &Reader{Runner: mr, Dir: "/repo"}

	st, err := r.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Files, 1)
	assert.Equal(t, "UU", st.Files[0].Status)

	dirty, err := r.IsDirty(context.Background())
	require.NoError(t, err)
	assert.False(t, dirty)

	assert.Equal(t, []string{"status", "--porcelain"}, mr.calls[0])
}

func TestReader_PropagatesError(t *testing.T) {
	t.Parallel()

	mr := &mockRunner{outputs: []string{""}, errs: []error{errors.New("boom")}}
	_, err := (&Reader{Runner: mr}).Status(context.Background())
	require.Error(t, err)
}

func TestReader_RealRepository(t *testing.T) {
	repo := testutil.NewRepo(t, testutil.DefaultRepoConfig())
	repo.CommitFile("old.txt", "content\n", "add old")
	repo.Git("mv", "old.txt", "new.txt")
	repo.WriteFile("README.md", "changed\n")
	repo.WriteFile("untracked.txt", "x\n")

	r := &Reader{Runner: git.NewExecRunner("git", nil), Dir: repo.Dir}
	st, err := r.Status(context.Background())
	require.NoError(t, err)

	byPath := map[string]model.StatusFile{}
	for _, f := range st.Files {
		byPath[f.Path] = f
	}
	require.Contains(t, byPath, "new.txt")
	assert.Equal(t, "old.txt", byPath["new.txt"].OldPath)
	assert.Equal(t, model.StatusRenamed, byPath["new.txt"].Type)
	assert.Equal(t, model.StatusModified, byPath["README.md"].Type)
	assert.True(t, byPath["README.md"].Unstaged)
	assert.Equal(t, model.StatusUntracked, byPath["untracked.txt"].Type)

	dirty, err := r.IsDirty(context.Background())
	require.NoError(t, err)
	assert.True(t, dirty)
}
