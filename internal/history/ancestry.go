package history

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/refs"
	"github.com/markrai/gitpow/model"
)

func (w *Walker) mustResolve(rev string) (*object.Commit, error) {
	c, err := w.resolve(rev)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeRevision, "cannot resolve revision "+rev, err)
	}
	return c, nil
}

// reachable marks every commit reachable from c, c included.
func reachable(ctx context.Context, c *object.Commit, seen map[plumbing.Hash]bool) error {
	iter := object.NewCommitPreorderIter(c, seen, nil)
	defer iter.Close()
	for {
		next, err := iter.Next()
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrTypeIO, "failed to walk history", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[next.Hash] = true
	}
}

// Between counts the commits reachable from to but not from from.
func (w *Walker) Between(ctx context.Context, from, to string) (int, error) {
	fromCommit, err := w.mustResolve(from)
	if err != nil {
		return 0, err
	}
	toCommit, err := w.mustResolve(to)
	if err != nil {
		return 0, err
	}

	hidden := map[plumbing.Hash]bool{}
	if err := reachable(ctx, fromCommit, hidden); err != nil {
		return 0, err
	}
	if hidden[toCommit.Hash] {
		return 0, nil
	}
	visible := map[plumbing.Hash]bool{}
	for h := range hidden {
		visible[h] = true
	}
	if err := reachable(ctx, toCommit, visible); err != nil {
		return 0, err
	}
	return len(visible) - len(hidden), nil
}

// AheadBehind compares local with upstream.
func (w *Walker) AheadBehind(ctx context.Context, local, upstream string) (model.AheadBehind, error) {
	ahead, err := w.Between(ctx, upstream, local)
	if err != nil {
		return model.AheadBehind{}, err
	}
	behind, err := w.Between(ctx, local, upstream)
	if err != nil {
		return model.AheadBehind{}, err
	}
	return model.AheadBehind{Ahead: ahead, Behind: behind}, nil
}

// IsDescendant reports whether commit strictly descends from ancestor.
func (w *Walker) IsDescendant(ctx context.Context, commit, ancestor string) (bool, error) {
	c, err := w.mustResolve(commit)
	if err != nil {
		return false, err
	}
	a, err := w.mustResolve(ancestor)
	if err != nil {
		return false, err
	}
	if c.Hash == a.Hash {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := a.IsAncestor(c)
	if err != nil {
		return false, errors.Wrap(errors.ErrTypeIO, "failed to walk history", err)
	}
	return ok, nil
}

// CountAll counts the commits reachable from any branch or HEAD. Large
// counts let callers switch off expensive views.
func (w *Walker) CountAll(ctx context.Context) (int, error) {
	tips, err := refs.Tips(w.Repo)
	if err != nil {
		return 0, err
	}
	starts := make([]plumbing.Hash, 0, len(tips)+1)
	for _, h := range tips {
		starts = append(starts, h)
	}
	if head, err := w.Repo.Head(); err == nil {
		starts = append(starts, head.Hash())
	}

	seen := map[plumbing.Hash]bool{}
	for _, h := range starts {
		if seen[h] {
			continue
		}
		c, err := w.Repo.CommitObject(h)
		if err != nil {
			continue
		}
		if err := reachable(ctx, c, seen); err != nil {
			return 0, err
		}
	}
	return len(seen), nil
}
