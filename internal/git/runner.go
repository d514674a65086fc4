package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/markrai/gitpow/internal/errors"
	"go.uber.org/zap"
)

// CommandError is the cause attached to every failed git invocation.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("git %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
}

// ExecRunner runs the git binary through os/exec.
type ExecRunner struct {
	Binary string
	Logger *zap.Logger
	// Env is appended to the process environment.
	Env []string
}

// NewExecRunner creates a runner for binary ("git" when empty).
func NewExecRunner(binary string, logger *zap.Logger) *ExecRunner {
	if binary == "" {
		binary = "git"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Binary: binary, Logger: logger}
}

// Run executes git with args in dir. Credential prompts are disabled so an
// unauthenticated remote fails instead of blocking. Paths are not quoted.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	full := append([]string{"-c", "core.quotepath=off"}, args...)
	cmd := exec.CommandContext(ctx, r.Binary, full...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_OPTIONAL_LOCKS=0")
	cmd.Env = append(cmd.Env, r.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug("Running git", zap.String("dir", dir), zap.Strings("args", args))
	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		cmdErr := &CommandError{Args: args, ExitCode: -1, Stderr: stderr.String()}
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		} else if cmdErr.Stderr == "" {
			cmdErr.Stderr = err.Error()
		}
		r.Logger.Debug("git failed",
			zap.Strings("args", args),
			zap.Int("exit_code", cmdErr.ExitCode),
			zap.String("stderr", strings.TrimSpace(cmdErr.Stderr)))
		return "", errors.Wrap(errors.ErrTypeCommand, "git "+subcommand(args), cmdErr)
	}

	r.Logger.Debug("git succeeded",
		zap.Strings("args", args),
		zap.Int("output_length", stdout.Len()))
	return stdout.String(), nil
}

func subcommand(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return strings.Join(args, " ")
}

// Stderr returns the captured stderr of a failed git invocation, or "".
func Stderr(err error) string {
	var cmdErr *CommandError
	if stderrors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return ""
}

var authFailurePatterns = []string{
	"authentication failed",
	"could not read username",
	"could not read password",
	"terminal prompts disabled",
	"permission denied (publickey",
	"host key verification failed",
	"invalid username or password",
	"http basic: access denied",
	"the requested url returned error: 401",
	"the requested url returned error: 403",
}

// IsAuthFailure reports whether err is a git failure caused by missing or
// rejected credentials.
func IsAuthFailure(err error) bool {
	stderr := strings.ToLower(Stderr(err))
	if stderr == "" {
		return false
	}
	for _, p := range authFailurePatterns {
		if strings.Contains(stderr, p) {
			return true
		}
	}
	return false
}
