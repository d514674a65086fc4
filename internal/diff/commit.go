package diff

import (
	"context"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

// CommitDiffer diffs commits against their first parent through the
// object graph. A root commit is diffed against the empty tree.
type CommitDiffer struct {
	Repo    *gogit.Repository
	Context int
	Logger  *zap.Logger
}

func (d *CommitDiffer) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d *CommitDiffer) resolve(rev string) (*object.Commit, error) {
	hash, err := d.Repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeRevision, "cannot resolve revision "+rev, err)
	}
	commit, err := d.Repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeRevision, "not a commit: "+rev, err)
	}
	return commit, nil
}

func (d *CommitDiffer) changes(ctx context.Context, commit *object.Commit) (object.Changes, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to read commit tree", err)
	}
	parentTree := &object.Tree{}
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, errors.Wrap(errors.ErrTypeIO, "failed to read parent commit", err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, errors.Wrap(errors.ErrTypeIO, "failed to read parent tree", err)
		}
	}
	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to diff trees", err)
	}
	return changes, nil
}

// missingRevision reports whether err is a revision that did not resolve.
// Reads degrade to an empty result in that case.
func (d *CommitDiffer) missingRevision(rev string, err error) bool {
	if !errors.IsType(err, errors.ErrTypeRevision) {
		return false
	}
	d.logger().Debug("revision not found, returning empty result", zap.String("rev", rev), zap.Error(err))
	return true
}

// FileDiff returns the diff of path in rev. A path the commit does not
// touch yields an empty diff; an unknown rev yields an empty diff tagged
// missing-revision.
func (d *CommitDiffer) FileDiff(ctx context.Context, rev, path string) (*model.FileDiff, error) {
	if path == "" {
		return nil, errors.ErrEmptyPath
	}
	commit, err := d.resolve(rev)
	if d.missingRevision(rev, err) {
		a := NewAssembler(path)
		a.Degrade(model.DegradedMissingRevision, err.Error())
		return a.Result(), nil
	}
	if err != nil {
		return nil, err
	}
	changes, err := d.changes(ctx, commit)
	if err != nil {
		return nil, err
	}

	change := pickChange(changes, path)
	if change == nil {
		d.logger().Debug("path not touched by commit",
			zap.String("commit", commit.Hash.String()), zap.String("path", path))
		return NewAssembler(path).Result(), nil
	}

	from, to, err := change.Files()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to read blobs for "+path, err)
	}
	sides := FileSides{OldPath: change.From.Name, NewPath: change.To.Name}
	oldEmpty := from != nil && from.Size == 0
	newEmpty := to != nil && to.Size == 0
	if from != nil && to != nil && oldEmpty != newEmpty {
		// 空 blob 会被当成二进制，改用行级 diff
		return d.contentDiff(path, from, to, sides)
	}

	patch, err := change.PatchContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to build patch for "+path, err)
	}
	fps := patch.FilePatches()
	if len(fps) == 0 {
		if (from == nil && newEmpty) || (to == nil && oldEmpty) {
			return Build(path, LinesBuilder{Sides: sides})
		}
		return NewAssembler(path).Result(), nil
	}

	return Build(path, PatchBuilder{
		Patch:    fps[0],
		Sides:    sides,
		OldEmpty: oldEmpty,
		NewEmpty: newEmpty,
		Context:  d.Context,
	})
}

func (d *CommitDiffer) contentDiff(path string, from, to *object.File, sides FileSides) (*model.FileDiff, error) {
	oldText, err := from.Contents()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to read "+from.Name, err)
	}
	newText, err := to.Contents()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to read "+to.Name, err)
	}
	return Build(path, LinesBuilder{Old: oldText, New: newText, Sides: sides, Context: d.Context})
}

// pickChange prefers the change whose new side is path.
func pickChange(changes object.Changes, path string) *object.Change {
	for _, c := range changes {
		if c.To.Name == path {
			return c
		}
	}
	for _, c := range changes {
		if c.From.Name == path {
			return c
		}
	}
	return nil
}

// Files lists the paths rev changed relative to its first parent. An
// unknown rev has no files.
func (d *CommitDiffer) Files(ctx context.Context, rev string) ([]model.FileChange, error) {
	commit, err := d.resolve(rev)
	if d.missingRevision(rev, err) {
		return []model.FileChange{}, nil
	}
	if err != nil {
		return nil, err
	}
	changes, err := d.changes(ctx, commit)
	if err != nil {
		return nil, err
	}

	files := make([]model.FileChange, 0, len(changes))
	for _, c := range changes {
		action, err := c.Action()
		if err != nil {
			continue
		}
		fc := model.FileChange{Path: c.To.Name, Status: "modified"}
		switch action {
		case merkletrie.Insert:
			fc.Status = "added"
		case merkletrie.Delete:
			fc.Path = c.From.Name
			fc.Status = "removed"
		}
		files = append(files, fc)
	}
	return files, nil
}

// Stats counts files and changed lines of rev. An unknown rev counts
// nothing.
func (d *CommitDiffer) Stats(ctx context.Context, rev string) (*model.CommitStats, error) {
	commit, err := d.resolve(rev)
	if d.missingRevision(rev, err) {
		return &model.CommitStats{}, nil
	}
	if err != nil {
		return nil, err
	}
	stats, err := commit.StatsContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to compute commit stats", err)
	}
	out := &model.CommitStats{FilesChanged: len(stats)}
	for _, s := range stats {
		out.LinesChanged += s.Addition + s.Deletion
	}
	return out, nil
}
