// Package staging stages and unstages whole files or selected hunks and
// records commits.
package staging

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/markrai/gitpow/internal/diff"
	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"go.uber.org/zap"
)

// Controller mutates the index of one working copy.
type Controller struct {
	Runner git.Runner
	Dir    string
	Logger *zap.Logger
}

// NewController creates a Controller.
func NewController(runner git.Runner, dir string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{Runner: runner, Dir: dir, Logger: logger}
}

func (c *Controller) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Stage adds path to the index. nil hunks stages the whole file; an empty
// non-nil set does nothing; otherwise only the selected hunks of the
// unstaged diff are applied to the index.
func (c *Controller) Stage(ctx context.Context, path string, hunks []int) error {
	if path == "" {
		return errors.ErrEmptyPath
	}
	if hunks == nil {
		_, err := c.Runner.Run(ctx, c.Dir, "add", "--", path)
		return err
	}
	if len(hunks) == 0 {
		return nil
	}
	return c.applyHunks(ctx, path, hunks, false)
}

// Unstage removes path from the index. nil hunks resets the whole file
// (or drops it from the index when HEAD is unborn); a non-empty set
// reverse-applies the selected hunks of the staged diff.
func (c *Controller) Unstage(ctx context.Context, path string, hunks []int) error {
	if path == "" {
		return errors.ErrEmptyPath
	}
	if hunks == nil {
		if _, err := c.Runner.Run(ctx, c.Dir, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
			_, err = c.Runner.Run(ctx, c.Dir, "rm", "--cached", "-q", "--", path)
			return err
		}
		_, err := c.Runner.Run(ctx, c.Dir, "reset", "-q", "HEAD", "--", path)
		return err
	}
	if len(hunks) == 0 {
		return nil
	}
	return c.applyHunks(ctx, path, hunks, true)
}

func (c *Controller) applyHunks(ctx context.Context, path string, hunks []int, staged bool) error {
	differ := &diff.TextDiffer{Runner: c.Runner, Dir: c.Dir, Logger: c.Logger}
	fd, err := differ.WorkingDiff(ctx, path, staged)
	if err != nil {
		return err
	}

	indices := normalize(hunks)
	patch := BuildPatch(fd, indices, staged)
	if patch == "" {
		c.logger().Debug("No hunks selected, nothing to apply",
			zap.String("path", path), zap.Ints("hunks", indices), zap.Int("available", len(fd.Hunks)))
		return nil
	}

	gitDir, err := git.GitDir(ctx, c.Runner, c.Dir)
	if err != nil {
		return err
	}
	scratch := filepath.Join(gitDir, "gitpow-patch-"+uuid.New().String()+".patch")
	if err := os.WriteFile(scratch, []byte(patch), 0600); err != nil {
		return errors.Wrap(errors.ErrTypeIO, "failed to write patch", err)
	}
	defer os.Remove(scratch)

	args := []string{"apply", "--cached", "--whitespace=nowarn"}
	if staged {
		args = append(args, "--reverse")
	}
	if _, err := c.Runner.Run(ctx, c.Dir, append(args, scratch)...); err != nil {
		return err
	}
	c.logger().Debug("Applied partial patch",
		zap.String("path", path), zap.Ints("hunks", indices), zap.Bool("reverse", staged))
	return nil
}

// Commit records the index with message and returns the new commit id.
func (c *Controller) Commit(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.ErrEmptyMessage
	}
	if _, err := c.Runner.Run(ctx, c.Dir, "commit", "-q", "-m", message); err != nil {
		return "", err
	}
	return git.RevParse(ctx, c.Runner, c.Dir, "HEAD")
}
