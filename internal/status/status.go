// Package status parses `git status --porcelain` output.
package status

import (
	"context"
	"strconv"
	"strings"

	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/model"
	"go.uber.org/zap"
)

const renameArrow = " -> "

// ParseLine 解析一行 porcelain 输出，格式为 "XY path"。
// ok 为 false 表示该行不符合格式。
func ParseLine(line string) (file model.StatusFile, ok bool) {
	line = strings.TrimRight(line, "\r")
	if len(line) < 4 || line[2] != ' ' {
		return model.StatusFile{}, false
	}
	code := line[:2]
	path := line[3:]

	file = model.StatusFile{
		Status:   code,
		Staged:   code[0] != ' ' && code[0] != '?',
		Unstaged: code[1] != ' ' && code[1] != '?',
	}

	if from, to, found := strings.Cut(path, renameArrow); found {
		file.OldPath = unquote(from)
		file.Path = unquote(to)
		file.Type = model.StatusRenamed
		return file, file.Path != ""
	}

	file.Path = unquote(path)
	switch {
	case strings.Contains(code, "A"):
		file.Type = model.StatusAdded
	case strings.Contains(code, "D"):
		file.Type = model.StatusDeleted
	case strings.Contains(code, "?"):
		file.Type = model.StatusUntracked
	default:
		file.Type = model.StatusModified
	}
	return file, file.Path != ""
}

// git quotes paths with special characters in C style
func unquote(p string) string {
	if strings.HasPrefix(p, `"`) {
		if decoded, err := strconv.Unquote(p); err == nil {
			return decoded
		}
	}
	return p
}

// Parse parses the full porcelain output. Malformed lines are skipped and
// reported as degradations.
func Parse(out string) *model.Status {
	st := &model.Status{Files: []model.StatusFile{}}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		file, ok := ParseLine(line)
		if !ok {
			st.Degraded = append(st.Degraded, model.Degradation{
				Kind:   model.DegradedMalformedStatusLine,
				Detail: line,
			})
			continue
		}
		st.Files = append(st.Files, file)
	}
	return st
}

// Reader reads the working tree status of one repository.
type Reader struct {
	Runner git.Runner
	Dir    string
	Logger *zap.Logger
}

// Porcelain returns the raw `git status --porcelain` output.
func (r *Reader) Porcelain(ctx context.Context) (string, error) {
	return r.Runner.Run(ctx, r.Dir, "status", "--porcelain")
}

// Status returns the parsed status.
func (r *Reader) Status(ctx context.Context) (*model.Status, error) {
	out, err := r.Porcelain(ctx)
	if err != nil {
		return nil, err
	}
	st := Parse(out)
	if len(st.Degraded) > 0 && r.Logger != nil {
		r.Logger.Warn("Skipped malformed status lines", zap.Int("count", len(st.Degraded)))
	}
	return st, nil
}

// IsDirty reports whether the working tree or index has any change,
// untracked files included.
func (r *Reader) IsDirty(ctx context.Context) (bool, error) {
	out, err := r.Porcelain(ctx)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}
