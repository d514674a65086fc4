package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorHandler 错误处理器
type ErrorHandler struct{}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Handle 将错误映射为结构化的报告和退出码
func (h *ErrorHandler) Handle(err error) Report {
	if err == nil {
		return Report{ExitCode: ExitCodeSuccess}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Report{
			Kind:     "timeout",
			Message:  "Operation timed out",
			Details:  err.Error(),
			ExitCode: ExitCodeTimeout,
		}
	}

	var gitpowErr *GitpowError
	if !errors.As(err, &gitpowErr) {
		return Report{
			Kind:     ErrTypeUnknown.String(),
			Message:  fmt.Sprintf("Error: %s", err.Error()),
			ExitCode: ExitCodeGenericError,
		}
	}

	report := Report{
		Kind:       gitpowErr.Type.String(),
		Message:    gitpowErr.Message,
		Suggestion: gitpowErr.Suggestion,
		ExitCode:   exitCodeFor(gitpowErr.Type),
	}
	if gitpowErr.Cause != nil {
		report.Details = strings.TrimSpace(gitpowErr.Cause.Error())
	}

	switch gitpowErr.Type {
	case ErrTypeRepositoryNotFound:
		if report.Suggestion == "" {
			report.Suggestion = "Check the repository identifier and the configured repos root"
		}
	case ErrTypeRevision:
		if report.Suggestion == "" {
			report.Suggestion = "Run: git rev-parse --verify <rev> to check the revision"
		}
	case ErrTypeAuth:
		if report.Suggestion == "" {
			report.Suggestion = "Configure a credential helper or SSH key for this remote"
		}
	}

	return report
}

func exitCodeFor(t ErrorType) int {
	switch t {
	case ErrTypeRepositoryNotFound:
		return ExitCodeRepositoryNotFound
	case ErrTypeRevision:
		return ExitCodeRevision
	case ErrTypeValidation:
		return ExitCodeValidation
	case ErrTypeAuth:
		return ExitCodeAuth
	case ErrTypeConfig:
		return ExitCodeConfig
	case ErrTypeIO:
		return ExitCodeIO
	case ErrTypeCommand, ErrTypeMalformed:
		return ExitCodeGitError
	default:
		return ExitCodeGenericError
	}
}

// FormatReport 格式化错误信息为用户友好的输出
func (h *ErrorHandler) FormatReport(report Report) string {
	var sb strings.Builder

	// 错误消息（红色）
	sb.WriteString(color.RedString("Error: %s\n", report.Message))

	// 详细信息（如果有）
	if report.Details != "" {
		sb.WriteString(color.YellowString("Details: %s\n", report.Details))
	}

	// 建议（如果有）
	if report.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(report.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}
