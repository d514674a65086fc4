package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGitpowError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *GitpowError
		expected string
	}{
		{
			name: "error without cause",
			err: &GitpowError{
				Type:    ErrTypeCommand,
				Message: "git diff failed",
			},
			expected: "git diff failed",
		},
		{
			name: "error with cause",
			err: &GitpowError{
				Type:    ErrTypeCommand,
				Message: "git diff failed",
				Cause:   errors.New("fatal: bad revision"),
			},
			expected: "git diff failed: fatal: bad revision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGitpowError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrTypeIO, "wrapper error", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestGitpowError_WithSuggestion(t *testing.T) {
	err := New(ErrTypeRevision, "unknown revision").WithSuggestion("check the branch name")
	assert.Equal(t, "check the branch name", err.Suggestion)
	assert.Equal(t, "check the branch name", GetSuggestion(fmt.Errorf("outer: %w", err)))
}

func TestGetType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"plain error", errors.New("plain"), ErrTypeUnknown},
		{"direct", New(ErrTypeRepositoryNotFound, "missing"), ErrTypeRepositoryNotFound},
		{"wrapped by fmt", fmt.Errorf("ctx: %w", New(ErrTypeAuth, "denied")), ErrTypeAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetType(tt.err))
		})
	}
}

func TestIsType_WalksCauses(t *testing.T) {
	inner := New(ErrTypeRevision, "bad revision")
	outer := Wrap(ErrTypeCommand, "git show failed", inner)

	assert.True(t, IsType(outer, ErrTypeCommand))
	assert.True(t, IsType(outer, ErrTypeRevision))
	assert.False(t, IsType(outer, ErrTypeAuth))
	assert.False(t, IsType(errors.New("plain"), ErrTypeCommand))
}

func TestFormatError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, "boom", FormatError(errors.New("boom")))
	})

	t.Run("with suggestion", func(t *testing.T) {
		msg := FormatError(ErrDirtyWorktree)
		assert.Contains(t, msg, "working tree has uncommitted changes")
		assert.Contains(t, msg, "stash your changes")
	})
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "repository_not_found", ErrTypeRepositoryNotFound.String())
	assert.Equal(t, "command_failure", ErrTypeCommand.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
}
