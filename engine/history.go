package engine

import (
	"context"

	"github.com/markrai/gitpow/internal/history"
	"github.com/markrai/gitpow/internal/refs"
	"github.com/markrai/gitpow/model"
)

// LogQuery selects a slice of history.
type LogQuery struct {
	Rev   string // empty means HEAD
	Limit int    // <= 0 means the configured default
	// Local tags every commit with Rev instead of the branches whose tip
	// it is.
	Local bool
}

// Branches returns the ref snapshot with per-branch metadata.
func (e *Engine) Branches(ctx context.Context, repoID string) (info *model.BranchInfo, err error) {
	ctx, span := e.start(ctx, "Branches", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	repo, err := s.repository()
	if err != nil {
		return nil, err
	}
	b := refs.NewBuilder(repo, s.cfg.StaleAfterDays, s.logger)
	b.Now = e.now
	return b.Build(ctx)
}

// Log walks history from q.Rev.
func (e *Engine) Log(ctx context.Context, repoID string, q LogQuery) (commits []model.Commit, err error) {
	ctx, span := e.start(ctx, "Log", repoID)
	defer finish(span, &err)

	w, err := e.walker(repoID)
	if err != nil {
		return nil, err
	}
	mode := history.Global
	if q.Local {
		mode = history.Local
	}
	return w.Walk(ctx, q.Rev, q.Limit, mode)
}

// Between counts commits reachable from to but not from from.
func (e *Engine) Between(ctx context.Context, repoID, from, to string) (n int, err error) {
	ctx, span := e.start(ctx, "Between", repoID)
	defer finish(span, &err)

	w, err := e.walker(repoID)
	if err != nil {
		return 0, err
	}
	return w.Between(ctx, from, to)
}

// AheadBehind compares two revisions.
func (e *Engine) AheadBehind(ctx context.Context, repoID, local, upstream string) (ab model.AheadBehind, err error) {
	ctx, span := e.start(ctx, "AheadBehind", repoID)
	defer finish(span, &err)

	w, err := e.walker(repoID)
	if err != nil {
		return model.AheadBehind{}, err
	}
	return w.AheadBehind(ctx, local, upstream)
}

// IsDescendant reports whether commit strictly descends from ancestor.
func (e *Engine) IsDescendant(ctx context.Context, repoID, commit, ancestor string) (ok bool, err error) {
	ctx, span := e.start(ctx, "IsDescendant", repoID)
	defer finish(span, &err)

	w, err := e.walker(repoID)
	if err != nil {
		return false, err
	}
	return w.IsDescendant(ctx, commit, ancestor)
}

// CommitCount counts every commit reachable from a branch or HEAD.
func (e *Engine) CommitCount(ctx context.Context, repoID string) (n int, err error) {
	ctx, span := e.start(ctx, "CommitCount", repoID)
	defer finish(span, &err)

	w, err := e.walker(repoID)
	if err != nil {
		return 0, err
	}
	return w.CountAll(ctx)
}

func (e *Engine) walker(repoID string) (*history.Walker, error) {
	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	repo, err := s.repository()
	if err != nil {
		return nil, err
	}
	return history.NewWalker(repo, s.cfg.DefaultLimit, s.logger), nil
}
