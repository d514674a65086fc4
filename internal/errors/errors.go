package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType int

const (
	// ErrTypeUnknown 未知错误
	ErrTypeUnknown ErrorType = iota
	// ErrTypeRepositoryNotFound 仓库标识无法解析为目录
	ErrTypeRepositoryNotFound
	// ErrTypeCommand git 命令以非零状态退出
	ErrTypeCommand
	// ErrTypeRevision 修订表达式无法解析或不唯一
	ErrTypeRevision
	// ErrTypeAuth 远程认证不可用
	ErrTypeAuth
	// ErrTypeMalformed 工具输出无法解析
	ErrTypeMalformed
	// ErrTypeValidation 验证错误
	ErrTypeValidation
	// ErrTypeConfig 配置相关错误
	ErrTypeConfig
	// ErrTypeIO 文件系统读写错误
	ErrTypeIO
)

// String returns the stable name used in logs and JSON output.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeRepositoryNotFound:
		return "repository_not_found"
	case ErrTypeCommand:
		return "command_failure"
	case ErrTypeRevision:
		return "ambiguous_or_missing_revision"
	case ErrTypeAuth:
		return "authentication_unavailable"
	case ErrTypeMalformed:
		return "malformed_tool_output"
	case ErrTypeValidation:
		return "validation"
	case ErrTypeConfig:
		return "config"
	case ErrTypeIO:
		return "io"
	default:
		return "unknown"
	}
}

// GitpowError 统一错误结构
type GitpowError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
}

// Error 实现 error 接口
func (e *GitpowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 支持 errors.Is 和 errors.As
func (e *GitpowError) Unwrap() error {
	return e.Cause
}

// WithSuggestion 添加解决建议
func (e *GitpowError) WithSuggestion(suggestion string) *GitpowError {
	e.Suggestion = suggestion
	return e
}

// New 创建新的 GitpowError
func New(errType ErrorType, message string) *GitpowError {
	return &GitpowError{
		Type:    errType,
		Message: message,
	}
}

// Newf is New with a format string.
func Newf(errType ErrorType, format string, args ...interface{}) *GitpowError {
	return New(errType, fmt.Sprintf(format, args...))
}

// Wrap 包装已有错误
func Wrap(errType ErrorType, message string, cause error) *GitpowError {
	return &GitpowError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// 预定义的常见错误
var (
	ErrEmptyPath       = New(ErrTypeValidation, "file path is required")
	ErrEmptyContent    = New(ErrTypeValidation, "resolved content is required")
	ErrEmptyMessage    = New(ErrTypeValidation, "commit message is required")
	ErrEmptyRepository = New(ErrTypeValidation, "repository identifier is required")
	ErrDirtyWorktree   = New(ErrTypeValidation, "working tree has uncommitted changes").
				WithSuggestion("commit or stash your changes before previewing a rebase")
)

// Is 检查是否为特定错误
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As 尝试转换为特定错误类型
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetType 获取错误类型
func GetType(err error) ErrorType {
	var gitpowErr *GitpowError
	if errors.As(err, &gitpowErr) {
		return gitpowErr.Type
	}
	return ErrTypeUnknown
}

// IsType reports whether any error in the chain has the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var gitpowErr *GitpowError
		if !errors.As(err, &gitpowErr) {
			return false
		}
		if gitpowErr.Type == errType {
			return true
		}
		err = gitpowErr.Cause
	}
	return false
}

// GetSuggestion 获取错误建议
func GetSuggestion(err error) string {
	var gitpowErr *GitpowError
	if errors.As(err, &gitpowErr) {
		return gitpowErr.Suggestion
	}
	return ""
}

// FormatError 格式化错误输出
func FormatError(err error) string {
	var gitpowErr *GitpowError
	if !errors.As(err, &gitpowErr) {
		return err.Error()
	}

	msg := gitpowErr.Error()
	if gitpowErr.Suggestion != "" {
		msg += fmt.Sprintf("\n💡 %s", gitpowErr.Suggestion)
	}

	return msg
}
