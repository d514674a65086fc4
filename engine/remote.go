package engine

import (
	"context"
	"sort"

	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/rebase"
	"github.com/markrai/gitpow/model"
)

// Remotes lists the configured remotes sorted by name.
func (e *Engine) Remotes(ctx context.Context, repoID string) (remotes []git.Remote, err error) {
	ctx, span := e.start(ctx, "Remotes", repoID)
	defer finish(span, &err)

	rm, err := e.remotes(repoID)
	if err != nil {
		return nil, err
	}
	return rm.GetRemotes(ctx)
}

// Fetch fetches every remote. Remotes that fail authentication are
// skipped and reported as degradations; the call still succeeds.
func (e *Engine) Fetch(ctx context.Context, repoID string) (res *model.FetchResult, err error) {
	ctx, span := e.start(ctx, "Fetch", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	report, err := git.NewRemoteManager(s.runner, s.dir, s.logger).FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return fetchResult(report), nil
}

func fetchResult(report *git.FetchReport) *model.FetchResult {
	res := &model.FetchResult{Fetched: append([]string{}, report.Fetched...)}
	skipped := make([]string, 0, len(report.AuthSkipped))
	for name := range report.AuthSkipped {
		skipped = append(skipped, name)
	}
	sort.Strings(skipped)
	for _, name := range skipped {
		res.Skipped = append(res.Skipped, name)
		res.Degraded = append(res.Degraded, model.Degradation{
			Kind:    model.DegradedAuthUnavailable,
			Subject: name,
			Detail:  report.AuthSkipped[name],
		})
	}
	return res
}

// Pull runs git pull on the current branch.
func (e *Engine) Pull(ctx context.Context, repoID string) (out string, err error) {
	ctx, span := e.start(ctx, "Pull", repoID)
	defer finish(span, &err)

	rm, err := e.remotes(repoID)
	if err != nil {
		return "", err
	}
	return rm.Pull(ctx)
}

// Push runs git push on the current branch.
func (e *Engine) Push(ctx context.Context, repoID string) (out string, err error) {
	ctx, span := e.start(ctx, "Push", repoID)
	defer finish(span, &err)

	rm, err := e.remotes(repoID)
	if err != nil {
		return "", err
	}
	return rm.Push(ctx)
}

// PushSetUpstream pushes branch to origin and tracks it.
func (e *Engine) PushSetUpstream(ctx context.Context, repoID, branch string) (out string, err error) {
	ctx, span := e.start(ctx, "PushSetUpstream", repoID)
	defer finish(span, &err)

	rm, err := e.remotes(repoID)
	if err != nil {
		return "", err
	}
	return rm.PushSetUpstream(ctx, branch)
}

// Upstream reports the current branch against its upstream. A branch
// without one reports zero counts.
func (e *Engine) Upstream(ctx context.Context, repoID string) (st *model.UpstreamStatus, err error) {
	ctx, span := e.start(ctx, "Upstream", repoID)
	defer finish(span, &err)

	rm, err := e.remotes(repoID)
	if err != nil {
		return nil, err
	}
	branch, err := rm.GetCurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	st = &model.UpstreamStatus{Branch: branch}
	if !rm.HasUpstreamBranch(ctx, branch) {
		return st, nil
	}
	st.HasUpstream = true
	if st.Ahead, st.Behind, err = rm.AheadBehindUpstream(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (e *Engine) remotes(repoID string) (git.RemoteManager, error) {
	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	return git.NewRemoteManager(s.runner, s.dir, s.logger), nil
}

// CheckoutBranch switches to branch.
func (e *Engine) CheckoutBranch(ctx context.Context, repoID, branch string) (out string, err error) {
	ctx, span := e.start(ctx, "CheckoutBranch", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return "", err
	}
	return git.CheckoutBranch(ctx, s.runner, s.dir, branch)
}

// CheckoutCommit detaches HEAD at sha.
func (e *Engine) CheckoutCommit(ctx context.Context, repoID, sha string) (out string, err error) {
	ctx, span := e.start(ctx, "CheckoutCommit", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return "", err
	}
	return git.CheckoutCommit(ctx, s.runner, s.dir, sha)
}

// PreviousBranch returns the branch HEAD last moved away from.
func (e *Engine) PreviousBranch(ctx context.Context, repoID string) (branch string, ok bool, err error) {
	ctx, span := e.start(ctx, "PreviousBranch", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return "", false, err
	}
	return git.PreviousBranch(ctx, s.runner, s.dir)
}

// RebasePreview lists the commits a rebase of from onto onto would replay.
func (e *Engine) RebasePreview(ctx context.Context, repoID, onto, from string) (p *model.RebasePreview, err error) {
	ctx, span := e.start(ctx, "RebasePreview", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	return rebase.NewPreviewer(s.runner, s.dir, s.logger).Preview(ctx, onto, from)
}

// RebasePlan validates an interactive plan. Only dry runs succeed.
func (e *Engine) RebasePlan(ctx context.Context, repoID, onto, from string, items []model.RebasePlanItem, dryRun bool) (res *model.RebasePlanResult, err error) {
	ctx, span := e.start(ctx, "RebasePlan", repoID)
	defer finish(span, &err)

	s, err := e.open(repoID)
	if err != nil {
		return nil, err
	}
	return rebase.NewPreviewer(s.runner, s.dir, s.logger).Plan(ctx, onto, from, items, dryRun)
}
