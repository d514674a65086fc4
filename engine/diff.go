package engine

import (
	"context"
	"strings"

	"github.com/markrai/gitpow/internal/config"
	"github.com/markrai/gitpow/internal/diff"
	"github.com/markrai/gitpow/model"
)

// CommitDiff diffs path in rev against the first parent of rev.
func (e *Engine) CommitDiff(ctx context.Context, repoID, rev, path string) (fd *model.FileDiff, err error) {
	ctx, span := e.start(ctx, "CommitDiff", repoID)
	defer finish(span, &err)

	d, s, err := e.commitDiffer(repoID)
	if err != nil {
		return nil, err
	}
	fd, err = d.FileDiff(ctx, rev, path)
	if err != nil {
		return nil, err
	}
	logDegraded(s.logger, "CommitDiff", fd.Degraded)
	return fd, nil
}

// CommitFiles lists the paths rev touched.
func (e *Engine) CommitFiles(ctx context.Context, repoID, rev string) (files []model.FileChange, err error) {
	ctx, span := e.start(ctx, "CommitFiles", repoID)
	defer finish(span, &err)

	d, _, err := e.commitDiffer(repoID)
	if err != nil {
		return nil, err
	}
	return d.Files(ctx, rev)
}

// CommitStats counts files and lines changed by rev.
func (e *Engine) CommitStats(ctx context.Context, repoID, rev string) (st *model.CommitStats, err error) {
	ctx, span := e.start(ctx, "CommitStats", repoID)
	defer finish(span, &err)

	d, _, err := e.commitDiffer(repoID)
	if err != nil {
		return nil, err
	}
	return d.Stats(ctx, rev)
}

func (e *Engine) commitDiffer(repoID string) (*diff.CommitDiffer, *session, error) {
	s, err := e.open(repoID)
	if err != nil {
		return nil, nil, err
	}
	repo, err := s.repository()
	if err != nil {
		return nil, nil, err
	}
	return &diff.CommitDiffer{Repo: repo, Context: s.cfg.ContextLines, Logger: s.logger}, s, nil
}

// WorkingDiff diffs path in the working tree against the index, or the
// index against HEAD when staged is set. The configured diff backend
// decides whether git or the in-process differ produces it.
func (e *Engine) WorkingDiff(ctx context.Context, repoID, path string, staged bool) (fd *model.FileDiff, err error) {
	ctx, span := e.start(ctx, "WorkingDiff", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(s.cfg.Diff.Backend, config.BackendNative) {
		fd, err = s.nativeWorkingDiff(ctx, path, staged)
	} else {
		d := &diff.TextDiffer{Runner: s.runner, Dir: s.dir, Logger: s.logger}
		fd, err = d.WorkingDiff(ctx, path, staged)
	}
	if err != nil {
		return nil, err
	}
	logDegraded(s.logger, "WorkingDiff", fd.Degraded)
	return fd, nil
}

func (s *session) nativeWorkingDiff(ctx context.Context, path string, staged bool) (*model.FileDiff, error) {
	repo, err := s.repository()
	if err != nil {
		return nil, err
	}
	d := &diff.NativeDiffer{Repo: repo, Dir: s.dir, Context: s.cfg.ContextLines}
	return d.WorkingDiff(ctx, path, staged)
}

// RefDiff diffs path in ref against ref's first parent.
func (e *Engine) RefDiff(ctx context.Context, repoID, ref, path string) (fd *model.FileDiff, err error) {
	ctx, span := e.start(ctx, "RefDiff", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	d := &diff.TextDiffer{Runner: s.runner, Dir: s.dir, Logger: s.logger}
	fd, err = d.RefDiff(ctx, ref, path)
	if err != nil {
		return nil, err
	}
	logDegraded(s.logger, "RefDiff", fd.Degraded)
	return fd, nil
}
