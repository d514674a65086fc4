// Package rebase previews rebases without executing them.
package rebase

import (
	"context"
	"strings"
	"time"

	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/status"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

const (
	DefaultOnto = "main"
	DefaultFrom = "HEAD"

	logFormat = "--format=%H%x1f%an%x1f%ae%x1f%aI%x1f%P%x1f%s%x1e"
)

// ErrExecutionUnsupported is reported for non-dry-run plans.
const ErrExecutionUnsupported = "interactive rebase execution is not supported; submit the plan as a dry run"

var actions = map[string]bool{
	"pick": true, "reword": true, "squash": true, "fixup": true, "drop": true,
}

// Previewer computes the commits a rebase would replay.
type Previewer struct {
	Runner git.Runner
	Dir    string
	Logger *zap.Logger
}

// NewPreviewer creates a Previewer.
func NewPreviewer(runner git.Runner, dir string, logger *zap.Logger) *Previewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Previewer{Runner: runner, Dir: dir, Logger: logger}
}

func (p *Previewer) requireClean(ctx context.Context) error {
	dirty, err := (&status.Reader{Runner: p.Runner, Dir: p.Dir}).IsDirty(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return errors.ErrDirtyWorktree
	}
	return nil
}

// Preview lists the commits of from that are not in onto, newest first.
// The working tree must be clean and the two revisions must share history.
func (p *Previewer) Preview(ctx context.Context, onto, from string) (*model.RebasePreview, error) {
	if onto == "" {
		onto = DefaultOnto
	}
	if from == "" {
		from = DefaultFrom
	}
	if err := p.requireClean(ctx); err != nil {
		return nil, err
	}

	out, err := p.Runner.Run(ctx, p.Dir, "merge-base", from, onto)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeRevision, "cannot find common ancestor of "+from+" and "+onto, err)
	}
	base := strings.TrimSpace(out)

	logOut, err := p.Runner.Run(ctx, p.Dir, "log", base+".."+from, logFormat)
	if err != nil {
		return nil, err
	}
	return &model.RebasePreview{
		Commits:   ParseLog(logOut),
		Onto:      onto,
		From:      from,
		MergeBase: base,
	}, nil
}

// ParseLog parses records written with the preview log format. Records
// with missing fields are skipped.
func ParseLog(out string) []model.Commit {
	commits := []model.Commit{}
	for _, record := range strings.Split(out, "\x1e") {
		record = strings.Trim(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		f := strings.Split(record, "\x1f")
		if len(f) < 6 {
			continue
		}
		date := strings.TrimSpace(f[3])
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			date = t.UTC().Format(time.RFC3339)
		}
		parents := strings.Fields(f[4])
		if parents == nil {
			parents = []string{}
		}
		commits = append(commits, model.Commit{
			ID:          strings.TrimSpace(f[0]),
			AuthorName:  strings.TrimSpace(f[1]),
			AuthorEmail: strings.TrimSpace(f[2]),
			AuthoredAt:  date,
			ParentIDs:   parents,
			IsMerge:     len(parents) > 1,
			Message:     strings.TrimSpace(strings.Join(f[5:], "\x1f")),
			Branches:    []string{},
		})
	}
	return commits
}

// Plan checks an interactive rebase plan. Only dry runs are supported:
// item ids are expanded to full ids of the preview set and actions are
// normalized, unknown ones becoming "pick".
func (p *Previewer) Plan(ctx context.Context, onto, from string, items []model.RebasePlanItem, dryRun bool) (*model.RebasePlanResult, error) {
	if strings.TrimSpace(onto) == "" || len(items) == 0 {
		return nil, errors.New(errors.ErrTypeValidation, "onto and a non-empty plan are required")
	}
	preview, err := p.Preview(ctx, onto, from)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		return &model.RebasePlanResult{Success: false, Error: ErrExecutionUnsupported}, nil
	}

	plan := make([]model.RebasePlanItem, 0, len(items))
	for _, item := range items {
		id, err := expand(item.ID, preview.Commits)
		if err != nil {
			return nil, err
		}
		action := strings.ToLower(strings.TrimSpace(item.Action))
		if !actions[action] {
			if action != "" && p.Logger != nil {
				p.Logger.Debug("Unknown rebase action, using pick", zap.String("action", item.Action))
			}
			action = "pick"
		}
		plan = append(plan, model.RebasePlanItem{ID: id, Action: action, Message: item.Message})
	}
	return &model.RebasePlanResult{Success: true, DryRun: true, Plan: plan}, nil
}

func expand(id string, commits []model.Commit) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if len(id) < 4 {
		return "", errors.Newf(errors.ErrTypeValidation, "commit id %q is too short", id)
	}
	match := ""
	for _, c := range commits {
		if strings.HasPrefix(c.ID, id) {
			if match != "" {
				return "", errors.Newf(errors.ErrTypeRevision, "commit id %q is ambiguous", id)
			}
			match = c.ID
		}
	}
	if match == "" {
		return "", errors.Newf(errors.ErrTypeValidation, "commit %s is not part of the rebase", id)
	}
	return match, nil
}
