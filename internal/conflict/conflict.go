// Package conflict detects unmerged paths, reads their three merge stages
// and records resolutions.
package conflict

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/status"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

// WireType is the only conflict type reported to clients.
const WireType = "both-modified"

// 冲突的具体原因
const (
	CauseBothAdded     = "both-added"
	CauseBothDeleted   = "both-deleted"
	CauseBothModified  = "both-modified"
	CauseAddedByUs     = "added-by-us"
	CauseAddedByThem   = "added-by-them"
	CauseDeletedByUs   = "deleted-by-us"
	CauseDeletedByThem = "deleted-by-them"
)

// Classify maps a two-character porcelain code to a conflict cause. ok is
// false when the code does not describe a conflict.
func Classify(code string) (cause string, ok bool) {
	if len(code) != 2 {
		return "", false
	}
	switch code {
	case "AA":
		return CauseBothAdded, true
	case "DD":
		return CauseBothDeleted, true
	case "UU":
		return CauseBothModified, true
	case "AU":
		return CauseAddedByUs, true
	case "UA":
		return CauseAddedByThem, true
	case "DU":
		return CauseDeletedByUs, true
	case "UD":
		return CauseDeletedByThem, true
	}
	if code[0] == 'U' || code[1] == 'U' {
		return CauseBothModified, true
	}
	return "", false
}

// Manager reads and resolves conflicts in one working copy.
type Manager struct {
	Runner git.Runner
	Dir    string
	Logger *zap.Logger
}

// NewManager creates a Manager.
func NewManager(runner git.Runner, dir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{Runner: runner, Dir: dir, Logger: logger}
}

func (m *Manager) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

// List returns the conflicted paths from the porcelain status.
func (m *Manager) List(ctx context.Context) (*model.Conflicts, error) {
	reader := &status.Reader{Runner: m.Runner, Dir: m.Dir, Logger: m.Logger}
	out, err := reader.Porcelain(ctx)
	if err != nil {
		return nil, err
	}

	res := &model.Conflicts{Files: []model.ConflictFile{}}
	for _, line := range strings.Split(out, "\n") {
		file, ok := status.ParseLine(line)
		if !ok {
			continue
		}
		cause, ok := Classify(file.Status)
		if !ok {
			continue
		}
		res.Files = append(res.Files, model.ConflictFile{
			Path:  file.Path,
			Type:  WireType,
			Cause: cause,
		})
	}
	res.HasConflicts = len(res.Files) > 0
	return res, nil
}

// Content reads the base (:1), ours (:2) and theirs (:3) stages of path
// plus the working file. A missing stage yields empty content and a
// degradation; ours falls back to the working file first.
func (m *Manager) Content(ctx context.Context, path string) (*model.ConflictContent, error) {
	full, err := m.localPath(path)
	if err != nil {
		return nil, err
	}

	res := &model.ConflictContent{FilePath: path}
	missing := func(stage string, cause error) {
		res.Degraded = append(res.Degraded, model.Degradation{
			Kind:    model.DegradedMissingStage,
			Subject: path,
			Detail:  stage,
		})
		m.logger().Debug("Merge stage unavailable",
			zap.String("path", path), zap.String("stage", stage), zap.Error(cause))
	}

	if res.Base, err = m.stage(ctx, 1, path); err != nil {
		missing("base", err)
	}
	if res.Mine, err = m.stage(ctx, 2, path); err != nil {
		data, readErr := os.ReadFile(full)
		if readErr != nil {
			missing("mine", err)
		} else {
			res.Mine = string(data)
		}
	}
	if res.Theirs, err = m.stage(ctx, 3, path); err != nil {
		missing("theirs", err)
	}

	if data, err := os.ReadFile(full); err == nil {
		res.Result = string(data)
	}
	return res, nil
}

func (m *Manager) stage(ctx context.Context, n int, path string) (string, error) {
	return m.Runner.Run(ctx, m.Dir, "show", fmt.Sprintf(":%d:%s", n, path))
}

// Resolve writes content to path and stages it. Both arguments must be
// non-empty; nothing is touched otherwise.
func (m *Manager) Resolve(ctx context.Context, path, content string) error {
	if path == "" {
		return errors.ErrEmptyPath
	}
	if content == "" {
		return errors.ErrEmptyContent
	}
	full, err := m.localPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.Wrap(errors.ErrTypeIO, "failed to create directory for "+path, err)
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(full); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(full, []byte(content), mode); err != nil {
		return errors.Wrap(errors.ErrTypeIO, "failed to write "+path, err)
	}

	if _, err := m.Runner.Run(ctx, m.Dir, "add", "--", path); err != nil {
		return err
	}
	m.logger().Info("Conflict resolved", zap.String("path", path))
	return nil
}

// localPath joins path onto the working copy, rejecting paths that leave it.
func (m *Manager) localPath(path string) (string, error) {
	if path == "" {
		return "", errors.ErrEmptyPath
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrTypeValidation, "path %q is outside the repository", path)
	}
	return filepath.Join(m.Dir, clean), nil
}
