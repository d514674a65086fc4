// Package refs builds the branch snapshot of a repository: rank-ordered
// branch names, per-branch metadata relative to the main line and a
// fingerprint that changes whenever any branch is created, deleted or moved.
package refs

import (
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

// DefaultStaleAfterDays 分支多少天没有提交视为过期
const DefaultStaleAfterDays = 90

// Rank 返回分支的排序优先级，数值越小越靠前
func Rank(name string) int {
	switch name {
	case "main":
		return 0
	case "master":
		return 1
	case "develop":
		return 2
	default:
		return 10
	}
}

// SortBranches sorts names by rank then lexicographically and removes
// duplicates. The input slice is reordered in place.
func SortBranches(names []string) []string {
	sort.Slice(names, func(i, j int) bool {
		ri, rj := Rank(names[i]), Rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	out := names[:0]
	for _, n := range names {
		if len(out) > 0 && out[len(out)-1] == n {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Pair is one (branch, tip) entry of the fingerprint. An empty ID means the
// branch could not be resolved.
type Pair struct {
	Name string
	ID   string
}

// Fingerprint hashes the pairs with FNV-64a and sums the results, so the
// value does not depend on the order of pairs.
func Fingerprint(pairs []Pair) string {
	var sum uint64
	for _, p := range pairs {
		h := fnv.New64a()
		h.Write([]byte(p.Name))
		if p.ID != "" {
			h.Write([]byte{0})
			h.Write([]byte(p.ID))
		}
		sum += h.Sum64()
	}
	return fmt.Sprintf("%x", sum)
}

// Tips lists local and remote-tracking branches with the hash each points
// at. Symbolic refs such as origin/HEAD are skipped.
func Tips(repo *gogit.Repository) (map[string]plumbing.Hash, error) {
	iter, err := repo.References()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to list references", err)
	}
	defer iter.Close()

	tips := make(map[string]plumbing.Hash)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if !name.IsBranch() && !name.IsRemote() {
			return nil
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		short := name.Short()
		if _, dup := tips[short]; !dup {
			tips[short] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to list references", err)
	}
	return tips, nil
}

// Builder computes BranchInfo snapshots.
type Builder struct {
	Repo           *gogit.Repository
	StaleAfterDays int
	// Now is the clock used for staleness; time.Now when nil.
	Now    func() time.Time
	Logger *zap.Logger
}

// NewBuilder creates a Builder with the default clock.
func NewBuilder(repo *gogit.Repository, staleAfterDays int, logger *zap.Logger) *Builder {
	if staleAfterDays <= 0 {
		staleAfterDays = DefaultStaleAfterDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{Repo: repo, StaleAfterDays: staleAfterDays, Now: time.Now, Logger: logger}
}

// Build enumerates branches once and derives their metadata.
func (b *Builder) Build(ctx context.Context) (*model.BranchInfo, error) {
	if b.Repo == nil {
		return nil, errors.New(errors.ErrTypeRepositoryNotFound, "repository is not open")
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	staleDays := b.StaleAfterDays
	if staleDays <= 0 {
		staleDays = DefaultStaleAfterDays
	}

	tips, err := Tips(b.Repo)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tips))
	for name := range tips {
		names = append(names, name)
	}
	names = SortBranches(names)

	info := &model.BranchInfo{
		Branches: names,
		Metadata: make(map[string]model.BranchMetadata, len(names)),
	}
	if info.Current, info.Head, err = b.current(); err != nil {
		return nil, err
	}

	mainName := mainLine(names)
	var mainTip *object.Commit
	if h, ok := tips[mainName]; ok {
		mainTip, _ = b.Repo.CommitObject(h)
	}

	pairs := make([]Pair, 0, len(names))
	at := now()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		commit, err := b.Repo.CommitObject(tips[name])
		if err != nil {
			logger.Debug("Branch tip does not resolve", zap.String("branch", name), zap.Error(err))
			info.Metadata[name] = model.BranchMetadata{IsUnborn: true}
			pairs = append(pairs, Pair{Name: name})
			continue
		}
		pairs = append(pairs, Pair{Name: name, ID: commit.Hash.String()})

		when := commit.Committer.When
		date := when.UTC().Format(time.RFC3339)
		info.Metadata[name] = model.BranchMetadata{
			IsMerged:     mergedInto(commit, mainTip, logger),
			IsStale:      int(at.Sub(when).Hours()/24) > staleDays,
			LastCommitAt: &date,
		}
	}
	info.RefsFingerprint = Fingerprint(pairs)
	return info, nil
}

// current returns the current branch name and the HEAD commit id. With no
// commits yet the symbolic HEAD target is read literally; a detached HEAD
// is reported as "HEAD".
func (b *Builder) current() (name, head string, err error) {
	ref, err := b.Repo.Head()
	if err == nil {
		if ref.Name().IsBranch() {
			return ref.Name().Short(), ref.Hash().String(), nil
		}
		return "HEAD", ref.Hash().String(), nil
	}
	if !stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", "", errors.Wrap(errors.ErrTypeIO, "failed to read HEAD", err)
	}

	sym, err := b.Repo.Reference(plumbing.HEAD, false)
	if err != nil || sym.Type() != plumbing.SymbolicReference {
		return "main", "", nil
	}
	return strings.TrimPrefix(string(sym.Target()), "refs/heads/"), "", nil
}

func mainLine(names []string) string {
	for _, n := range names {
		if n == "main" || n == "master" {
			return n
		}
	}
	return "main"
}

// mergedInto reports whether main is a strict descendant of tip.
func mergedInto(tip, main *object.Commit, logger *zap.Logger) bool {
	if main == nil || tip.Hash == main.Hash {
		return false
	}
	ok, err := tip.IsAncestor(main)
	if err != nil {
		logger.Debug("Ancestry check failed", zap.String("commit", tip.Hash.String()), zap.Error(err))
		return false
	}
	return ok
}
