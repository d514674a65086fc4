package git

import "context"

// Remote Git远程仓库信息
type Remote struct {
	Name     string `json:"name"`                // 远程仓库名称，如 origin
	FetchURL string `json:"fetch_url,omitempty"` // 拉取URL
	PushURL  string `json:"push_url,omitempty"`  // 推送URL
}

// Runner Git命令执行器接口
//
// dir 为执行目录；成功时返回 stdout，失败时返回 ErrTypeCommand 错误，
// 错误信息为 stderr 的内容。
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// RemoteManager Git远程仓库管理器
type RemoteManager interface {
	// GetRemotes 获取所有远程仓库
	GetRemotes(ctx context.Context) ([]Remote, error)

	// SelectRemote 根据优先级选择远程仓库
	SelectRemote(remotes []Remote, preferredName string) (*Remote, error)

	// GetCurrentBranch 获取当前分支名
	GetCurrentBranch(ctx context.Context) (string, error)

	// HasUpstreamBranch 检查分支是否有上游分支
	HasUpstreamBranch(ctx context.Context, branch string) bool

	// AheadBehindUpstream 当前分支相对上游的领先/落后提交数
	AheadBehindUpstream(ctx context.Context) (ahead, behind int, err error)

	// FetchAll 拉取所有远程仓库，认证失败的远程会被跳过
	FetchAll(ctx context.Context) (*FetchReport, error)

	// Pull 执行 git pull
	Pull(ctx context.Context) (string, error)

	// Push 执行 git push
	Push(ctx context.Context) (string, error)

	// PushSetUpstream 推送分支并设置上游
	PushSetUpstream(ctx context.Context, branch string) (string, error)
}

// FetchReport 记录 FetchAll 的结果
type FetchReport struct {
	Fetched []string
	// AuthSkipped maps remote name to the stderr that identified the
	// authentication failure.
	AuthSkipped map[string]string
}
