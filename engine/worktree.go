package engine

import (
	"context"

	"github.com/markrai/gitpow/internal/conflict"
	"github.com/markrai/gitpow/internal/stash"
	"github.com/markrai/gitpow/internal/staging"
	"github.com/markrai/gitpow/internal/status"
	"github.com/markrai/gitpow/model"
)

// Status 返回工作区状态
func (e *Engine) Status(ctx context.Context, repoID string) (st *model.Status, err error) {
	ctx, span := e.start(ctx, "Status", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	r := &status.Reader{Runner: s.runner, Dir: s.dir, Logger: s.logger}
	return r.Status(ctx)
}

// Conflicts lists unmerged paths.
func (e *Engine) Conflicts(ctx context.Context, repoID string) (c *model.Conflicts, err error) {
	ctx, span := e.start(ctx, "Conflicts", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	return conflict.NewManager(s.runner, s.dir, s.logger).List(ctx)
}

// ConflictContent returns the merge stages of path.
func (e *Engine) ConflictContent(ctx context.Context, repoID, path string) (c *model.ConflictContent, err error) {
	ctx, span := e.start(ctx, "ConflictContent", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	c, err = conflict.NewManager(s.runner, s.dir, s.logger).Content(ctx, path)
	if err != nil {
		return nil, err
	}
	logDegraded(s.logger, "ConflictContent", c.Degraded)
	return c, nil
}

// ResolveConflict writes content to path and stages it.
func (e *Engine) ResolveConflict(ctx context.Context, repoID, path, content string) (err error) {
	ctx, span := e.start(ctx, "ResolveConflict", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return err
	}
	return conflict.NewManager(s.runner, s.dir, s.logger).Resolve(ctx, path, content)
}

// Stage stages the selected hunks of path, or the whole file when hunks
// is nil.
func (e *Engine) Stage(ctx context.Context, repoID, path string, hunks []int) (err error) {
	ctx, span := e.start(ctx, "Stage", repoID)
	defer finish(span, &err)

	c, err := e.staging(repoID)
	if err != nil {
		return err
	}
	return c.Stage(ctx, path, hunks)
}

// Unstage is the inverse of Stage.
func (e *Engine) Unstage(ctx context.Context, repoID, path string, hunks []int) (err error) {
	ctx, span := e.start(ctx, "Unstage", repoID)
	defer finish(span, &err)

	c, err := e.staging(repoID)
	if err != nil {
		return err
	}
	return c.Unstage(ctx, path, hunks)
}

// Commit records the index and returns the new commit id.
func (e *Engine) Commit(ctx context.Context, repoID, message string) (id string, err error) {
	ctx, span := e.start(ctx, "Commit", repoID)
	defer finish(span, &err)

	c, err := e.staging(repoID)
	if err != nil {
		return "", err
	}
	return c.Commit(ctx, message)
}

func (e *Engine) staging(repoID string) (*staging.Controller, error) {
	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	return staging.NewController(s.runner, s.dir, s.logger), nil
}

// StashList lists stash entries, newest first.
func (e *Engine) StashList(ctx context.Context, repoID string) (entries []model.StashEntry, err error) {
	ctx, span := e.start(ctx, "StashList", repoID)
	defer finish(span, &err)

	m, err := e.stash(repoID)
	if err != nil {
		return nil, err
	}
	return m.List(ctx)
}

// StashPush stashes local changes with an optional message.
func (e *Engine) StashPush(ctx context.Context, repoID, message string) (out string, err error) {
	ctx, span := e.start(ctx, "StashPush", repoID)
	defer finish(span, &err)

	m, err := e.stash(repoID)
	if err != nil {
		return "", err
	}
	return m.Push(ctx, message)
}

// StashPop applies and drops the newest entry.
func (e *Engine) StashPop(ctx context.Context, repoID string) (out string, err error) {
	ctx, span := e.start(ctx, "StashPop", repoID)
	defer finish(span, &err)

	m, err := e.stash(repoID)
	if err != nil {
		return "", err
	}
	return m.Pop(ctx)
}

// StashApply applies ref without dropping it.
func (e *Engine) StashApply(ctx context.Context, repoID, ref string) (out string, err error) {
	ctx, span := e.start(ctx, "StashApply", repoID)
	defer finish(span, &err)

	m, err := e.stash(repoID)
	if err != nil {
		return "", err
	}
	return m.Apply(ctx, ref)
}

// StashDrop removes ref.
func (e *Engine) StashDrop(ctx context.Context, repoID, ref string) (out string, err error) {
	ctx, span := e.start(ctx, "StashDrop", repoID)
	defer finish(span, &err)

	m, err := e.stash(repoID)
	if err != nil {
		return "", err
	}
	return m.Drop(ctx, ref)
}

func (e *Engine) stash(repoID string) (*stash.Manager, error) {
	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	return stash.NewManager(s.runner, s.dir, s.logger), nil
}
