package git

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/markrai/gitpow/internal/errors"
)

// Open opens the repository at path for object-graph access.
func Open(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		if stderrors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, errors.Wrap(errors.ErrTypeRepositoryNotFound, "not a git repository: "+path, err)
		}
		return nil, errors.Wrap(errors.ErrTypeIO, "failed to open repository", err)
	}
	return repo, nil
}

// GitDir returns the absolute git directory of the working copy at dir.
func GitDir(ctx context.Context, r Runner, dir string) (string, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	gitDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	return gitDir, nil
}

// RevParse resolves spec to a full object id.
func RevParse(ctx context.Context, r Runner, dir, spec string) (string, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--verify", "--quiet", spec+"^{commit}")
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeRevision, "cannot resolve revision "+spec, err)
	}
	return strings.TrimSpace(out), nil
}
