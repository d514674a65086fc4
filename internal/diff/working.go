package diff

import (
	"context"
	"strings"

	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

// TextDiffer produces diffs by running the git binary and scanning its
// unified output.
type TextDiffer struct {
	Runner git.Runner
	Dir    string
	Logger *zap.Logger
}

func (d *TextDiffer) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// WorkingDiff diffs path in the working tree against the index, or the
// index against HEAD when staged is set.
func (d *TextDiffer) WorkingDiff(ctx context.Context, path string, staged bool) (*model.FileDiff, error) {
	if path == "" {
		return nil, errors.ErrEmptyPath
	}
	out, err := d.Runner.Run(ctx, d.Dir, workingDiffArgs(path, staged)...)
	if err != nil {
		return nil, err
	}
	return ParseUnified(path, out), nil
}

func workingDiffArgs(path string, staged bool) []string {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if staged {
		args = append(args, "--cached")
	}
	return append(args, "--", path)
}

// RefDiff diffs path in ref against ref's first parent. When the parent
// cannot be resolved the file content at ref is returned as a hunk-less
// all-added body.
func (d *TextDiffer) RefDiff(ctx context.Context, ref, path string) (*model.FileDiff, error) {
	if path == "" {
		return nil, errors.ErrEmptyPath
	}
	if ref == "" {
		ref = "HEAD"
	}

	parentOut, err := d.Runner.Run(ctx, d.Dir, "rev-parse", "--verify", "--quiet", ref+"^")
	parent := strings.TrimSpace(parentOut)
	if err != nil || parent == "" {
		return d.bootstrap(ctx, ref, path)
	}

	inRef := d.exists(ctx, ref, path)
	inParent := d.exists(ctx, parent, path)

	switch {
	case inRef && inParent:
		out, err := d.Runner.Run(ctx, d.Dir, "diff", "--no-color", "--no-ext-diff", parent, ref, "--", path)
		if err != nil {
			return nil, err
		}
		return ParseUnified(path, out), nil
	case inRef:
		content, err := d.Runner.Run(ctx, d.Dir, "show", ref+":"+path)
		if err != nil {
			return nil, err
		}
		return Build(path, LinesBuilder{New: content, Sides: FileSides{NewPath: path}})
	case inParent:
		content, err := d.Runner.Run(ctx, d.Dir, "show", parent+":"+path)
		if err != nil {
			return nil, err
		}
		return Build(path, LinesBuilder{Old: content, Sides: FileSides{OldPath: path}})
	default:
		return NewAssembler(path).Result(), nil
	}
}

func (d *TextDiffer) exists(ctx context.Context, rev, path string) bool {
	_, err := d.Runner.Run(ctx, d.Dir, "cat-file", "-e", rev+":"+path)
	return err == nil
}

// bootstrap renders the file at ref as added lines without hunk records.
// When ref or path cannot be read the diff is empty and tagged
// missing-revision.
func (d *TextDiffer) bootstrap(ctx context.Context, ref, path string) (*model.FileDiff, error) {
	content, err := d.Runner.Run(ctx, d.Dir, "show", ref+":"+path)
	if err != nil {
		a := NewAssembler(path)
		a.Degrade(model.DegradedMissingRevision, "cannot read "+path+" at "+ref+": "+strings.TrimSpace(git.Stderr(err)))
		d.logger().Debug("ref not readable, returning empty diff",
			zap.String("ref", ref), zap.String("path", path), zap.Error(err))
		return a.Result(), nil
	}

	a := NewAssembler(path)
	a.FileHeader("--- /dev/null")
	a.FileHeader("+++ b/" + path)
	body := strings.TrimSuffix(content, "\n")
	if content != "" {
		for _, line := range strings.Split(body, "\n") {
			a.Orphan("+" + line)
		}
	}
	a.Degrade(model.DegradedHunklessBootstrap, "no parent for "+ref)
	d.logger().Debug("ref has no parent, returning whole file", zap.String("ref", ref), zap.String("path", path))
	return a.Result(), nil
}
