package errors

// Exit codes for different error types
const (
	ExitCodeSuccess            = 0
	ExitCodeGenericError       = 1
	ExitCodeRepositoryNotFound = 2
	ExitCodeRevision           = 3
	ExitCodeValidation         = 4
	ExitCodeAuth               = 5
	ExitCodeConfig             = 6
	ExitCodeIO                 = 7
	ExitCodeGitError           = 8
	ExitCodeTimeout            = 124 // Standard timeout exit code
)

// Report 包含面向用户的错误信息
type Report struct {
	Kind       string // 错误类型名称
	Message    string // 用户友好的错误消息
	Details    string // 详细的错误信息（可选）
	Suggestion string // 建议的解决方案
	ExitCode   int    // 退出码
}
