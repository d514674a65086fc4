// Package history walks commit graphs through the object store.
package history

import (
	"container/heap"
	"context"
	stderrors "errors"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/refs"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

// DefaultLimit is used when a walk is requested with a non-positive limit.
const DefaultLimit = 200

// Mode 决定提交如何标注分支
type Mode int

const (
	// Global 为每个提交标注指向它的所有分支
	Global Mode = iota
	// Local 用输入的修订表达式统一标注所有提交
	Local
)

// Walker walks history from a revision.
type Walker struct {
	Repo         *gogit.Repository
	DefaultLimit int
	Logger       *zap.Logger
}

// NewWalker creates a Walker.
func NewWalker(repo *gogit.Repository, defaultLimit int, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{Repo: repo, DefaultLimit: defaultLimit, Logger: logger}
}

func (w *Walker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

// Walk returns up to limit commits reachable from rev. No parent is
// returned before any of its children; otherwise newer committer times come
// first. An unborn or unknown revision yields an empty slice.
func (w *Walker) Walk(ctx context.Context, rev string, limit int, mode Mode) ([]model.Commit, error) {
	if rev == "" {
		rev = "HEAD"
	}
	if limit <= 0 {
		limit = w.DefaultLimit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	start, err := w.resolve(rev)
	if err != nil {
		w.logger().Debug("Revision does not resolve, returning empty history",
			zap.String("rev", rev), zap.Error(err))
		return []model.Commit{}, nil
	}

	var tips map[plumbing.Hash][]string
	if mode == Global {
		if tips, err = branchesByTip(w.Repo); err != nil {
			return nil, err
		}
	}

	ordered, err := topoOrder(ctx, w.Repo, start, limit)
	if err != nil {
		return nil, err
	}

	commits := make([]model.Commit, 0, len(ordered))
	for _, c := range ordered {
		var branches []string
		if mode == Global {
			branches = tips[c.Hash]
		} else {
			branches = []string{rev}
		}
		commits = append(commits, ToModel(c, branches))
	}
	return commits, nil
}

func (w *Walker) resolve(rev string) (*object.Commit, error) {
	hash, err := w.Repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, err
	}
	return w.Repo.CommitObject(*hash)
}

// ToModel projects a commit into the wire record.
func ToModel(c *object.Commit, branches []string) model.Commit {
	if branches == nil {
		branches = []string{}
	}
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return model.Commit{
		ID:          c.Hash.String(),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		AuthoredAt:  c.Author.When.UTC().Format(time.RFC3339),
		Message:     c.Message,
		ParentIDs:   parents,
		IsMerge:     len(c.ParentHashes) > 1,
		Branches:    branches,
	}
}

// branchesByTip maps each tip commit to the branches pointing at it, in
// rank order.
func branchesByTip(repo *gogit.Repository) (map[plumbing.Hash][]string, error) {
	tips, err := refs.Tips(repo)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tips))
	for name := range tips {
		names = append(names, name)
	}
	byTip := make(map[plumbing.Hash][]string, len(tips))
	for _, name := range refs.SortBranches(names) {
		h := tips[name]
		byTip[h] = append(byTip[h], name)
	}
	return byTip, nil
}

// topoOrder collects every commit reachable from start, then emits them
// children-first with a max-heap on committer time.
func topoOrder(ctx context.Context, repo *gogit.Repository, start *object.Commit, limit int) ([]*object.Commit, error) {
	nodes := map[plumbing.Hash]*object.Commit{start.Hash: start}
	children := map[plumbing.Hash]int{}
	stack := []*object.Commit{start}
	for len(stack) > 0 {
		if len(nodes)%512 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, ph := range c.ParentHashes {
			children[ph]++
			if _, seen := nodes[ph]; seen {
				continue
			}
			parent, err := repo.CommitObject(ph)
			if err != nil {
				if stderrors.Is(err, plumbing.ErrObjectNotFound) {
					// shallow clone boundary
					continue
				}
				return nil, errors.Wrap(errors.ErrTypeIO, "failed to read commit "+ph.String(), err)
			}
			nodes[ph] = parent
			stack = append(stack, parent)
		}
	}

	ready := &commitHeap{}
	for h, c := range nodes {
		if children[h] == 0 {
			heap.Push(ready, c)
		}
	}

	out := make([]*object.Commit, 0, min(limit, len(nodes)))
	for ready.Len() > 0 && len(out) < limit {
		c := heap.Pop(ready).(*object.Commit)
		out = append(out, c)
		for _, ph := range c.ParentHashes {
			parent, ok := nodes[ph]
			if !ok {
				continue
			}
			children[ph]--
			if children[ph] == 0 {
				heap.Push(ready, parent)
			}
		}
	}
	return out, nil
}

// commitHeap orders by committer time, newest first, then by hash.
type commitHeap []*object.Commit

func (h commitHeap) Len() int { return len(h) }

func (h commitHeap) Less(i, j int) bool {
	ti, tj := h[i].Committer.When, h[j].Committer.When
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return h[i].Hash.String() < h[j].Hash.String()
}

func (h commitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *commitHeap) Push(x any) { *h = append(*h, x.(*object.Commit)) }

func (h *commitHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
