package git

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/markrai/gitpow/internal/errors"
	"go.uber.org/zap"
)

// remoteManager Git远程仓库管理器实现
type remoteManager struct {
	runner Runner
	dir    string
	logger *zap.Logger
}

// NewRemoteManager 创建新的远程仓库管理器
func NewRemoteManager(runner Runner, dir string, logger *zap.Logger) RemoteManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &remoteManager{
		runner: runner,
		dir:    dir,
		logger: logger,
	}
}

// GetRemotes 获取所有远程仓库，按名称排序
func (m *remoteManager) GetRemotes(ctx context.Context) ([]Remote, error) {
	output, err := m.runner.Run(ctx, m.dir, "remote", "-v")
	if err != nil {
		return nil, fmt.Errorf("failed to get remotes: %w", err)
	}

	remotes := make(map[string]*Remote)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}

		// 格式: origin	https://github.com/owner/repo.git (fetch)
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}

		name := parts[0]
		url := parts[1]
		typeStr := strings.Trim(parts[2], "()")

		if _, exists := remotes[name]; !exists {
			remotes[name] = &Remote{Name: name}
		}

		switch typeStr {
		case "fetch":
			remotes[name].FetchURL = url
		case "push":
			remotes[name].PushURL = url
		}
	}

	result := make([]Remote, 0, len(remotes))
	for _, remote := range remotes {
		result = append(result, *remote)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// SelectRemote 根据优先级选择远程仓库
func (m *remoteManager) SelectRemote(remotes []Remote, preferredName string) (*Remote, error) {
	if len(remotes) == 0 {
		return nil, errors.New(errors.ErrTypeValidation, "no remotes configured")
	}

	if preferredName != "" {
		for _, remote := range remotes {
			if remote.Name == preferredName {
				return &remote, nil
			}
		}
		return nil, errors.Newf(errors.ErrTypeValidation, "remote '%s' not found", preferredName)
	}

	// 默认查找origin
	for _, remote := range remotes {
		if remote.Name == "origin" {
			return &remote, nil
		}
	}

	return nil, errors.New(errors.ErrTypeValidation, "no 'origin' remote found and no remote specified")
}

// GetCurrentBranch 获取当前分支名
func (m *remoteManager) GetCurrentBranch(ctx context.Context) (string, error) {
	output, err := m.runner.Run(ctx, m.dir, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	branch := strings.TrimSpace(output)
	if branch == "" {
		return "", errors.New(errors.ErrTypeRevision, "not on any branch (detached HEAD)")
	}

	return branch, nil
}

// HasUpstreamBranch 检查分支是否有上游分支
func (m *remoteManager) HasUpstreamBranch(ctx context.Context, branch string) bool {
	_, err := m.runner.Run(ctx, m.dir, "rev-parse", "--abbrev-ref", "--symbolic-full-name", branch+"@{upstream}")
	return err == nil
}

// AheadBehindUpstream 当前分支相对上游的领先/落后提交数
func (m *remoteManager) AheadBehindUpstream(ctx context.Context) (int, int, error) {
	output, err := m.runner.Run(ctx, m.dir, "rev-list", "--left-right", "--count", "HEAD...@{u}")
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrTypeRevision, "no upstream configured", err)
	}
	ahead, behind := parseLeftRight(output)
	return ahead, behind, nil
}

func parseLeftRight(output string) (int, int) {
	parts := strings.Fields(output)
	if len(parts) != 2 {
		return 0, 0
	}
	ahead, _ := strconv.Atoi(parts[0])
	behind, _ := strconv.Atoi(parts[1])
	return ahead, behind
}

// FetchAll fetches every remote. A remote that fails authentication is
// logged and skipped; any other failure aborts.
func (m *remoteManager) FetchAll(ctx context.Context) (*FetchReport, error) {
	remotes, err := m.GetRemotes(ctx)
	if err != nil {
		return nil, err
	}

	report := &FetchReport{AuthSkipped: map[string]string{}}
	for _, remote := range remotes {
		_, err := m.runner.Run(ctx, m.dir, "fetch", "--prune", remote.Name)
		if err == nil {
			report.Fetched = append(report.Fetched, remote.Name)
			continue
		}
		if IsAuthFailure(err) {
			m.logger.Warn("Skipping remote due to authentication failure, using local refs only",
				zap.String("remote", remote.Name))
			report.AuthSkipped[remote.Name] = strings.TrimSpace(Stderr(err))
			continue
		}
		return nil, fmt.Errorf("failed to fetch remote %s: %w", remote.Name, err)
	}
	return report, nil
}

// Pull 执行 git pull
func (m *remoteManager) Pull(ctx context.Context) (string, error) {
	return m.runRemote(ctx, "pull", "pull")
}

// Push 执行 git push
func (m *remoteManager) Push(ctx context.Context) (string, error) {
	return m.runRemote(ctx, "push", "push")
}

// PushSetUpstream 推送分支到 origin 并设置上游
func (m *remoteManager) PushSetUpstream(ctx context.Context, branch string) (string, error) {
	if strings.TrimSpace(branch) == "" {
		return "", errors.New(errors.ErrTypeValidation, "branch name is required")
	}
	remotes, err := m.GetRemotes(ctx)
	if err != nil {
		return "", err
	}
	remote, err := m.SelectRemote(remotes, "")
	if err != nil {
		return "", err
	}
	return m.runRemote(ctx, "push", "push", "-u", remote.Name, branch)
}

func (m *remoteManager) runRemote(ctx context.Context, op string, args ...string) (string, error) {
	out, err := m.runner.Run(ctx, m.dir, args...)
	if err != nil {
		if IsAuthFailure(err) {
			return "", errors.Wrap(errors.ErrTypeAuth, "git "+op+" requires credentials", err)
		}
		return "", err
	}
	return out, nil
}
