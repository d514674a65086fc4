// Package stash wraps `git stash`.
package stash

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

const listFormat = "--format=%gd%x1f%s%x1f%aI"

// 只接受 stash@{N} 形式的引用
var validRef = regexp.MustCompile(`^stash@\{\d+\}$`)

// Manager runs stash commands in one working copy.
type Manager struct {
	runner git.Runner
	dir    string
	logger *zap.Logger
}

// NewManager creates a Manager.
func NewManager(runner git.Runner, dir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{runner: runner, dir: dir, logger: logger}
}

// List returns the stash entries, newest first. Lines that do not have
// three fields are skipped.
func (m *Manager) List(ctx context.Context) ([]model.StashEntry, error) {
	out, err := m.runner.Run(ctx, m.dir, "stash", "list", listFormat)
	if err != nil {
		return nil, err
	}
	return ParseList(out), nil
}

// ParseList parses `git stash list` output in the list format.
func ParseList(out string) []model.StashEntry {
	entries := []model.StashEntry{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\x1f")
		if len(fields) != 3 || fields[0] == "" {
			continue
		}
		date := fields[2]
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			date = t.UTC().Format(time.RFC3339)
		}
		entries = append(entries, model.StashEntry{Ref: fields[0], Message: fields[1], Date: date})
	}
	return entries
}

// Push stashes local changes, with an optional message.
func (m *Manager) Push(ctx context.Context, message string) (string, error) {
	args := []string{"stash", "push"}
	if msg := strings.TrimSpace(message); msg != "" {
		args = append(args, "-m", msg)
	}
	return m.run(ctx, args...)
}

// Pop applies and drops the most recent stash.
func (m *Manager) Pop(ctx context.Context) (string, error) {
	return m.run(ctx, "stash", "pop")
}

// Apply applies ref without dropping it.
func (m *Manager) Apply(ctx context.Context, ref string) (string, error) {
	if err := checkRef(ref); err != nil {
		return "", err
	}
	return m.run(ctx, "stash", "apply", ref)
}

// Drop deletes ref.
func (m *Manager) Drop(ctx context.Context, ref string) (string, error) {
	if err := checkRef(ref); err != nil {
		return "", err
	}
	return m.run(ctx, "stash", "drop", ref)
}

func (m *Manager) run(ctx context.Context, args ...string) (string, error) {
	out, err := m.runner.Run(ctx, m.dir, args...)
	if err != nil {
		return "", err
	}
	m.logger.Debug("Stash command finished", zap.Strings("args", args))
	return strings.TrimSpace(out), nil
}

func checkRef(ref string) error {
	if !validRef.MatchString(ref) {
		return errors.Newf(errors.ErrTypeValidation, "invalid stash reference %q", ref).
			WithSuggestion("use the form stash@{N}")
	}
	return nil
}
