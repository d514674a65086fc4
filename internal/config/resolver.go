package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/markrai/gitpow/internal/errors"
)

// ResolveRepository maps a repository identifier to an existing directory.
// Explicit entries in Repositories win; otherwise the identifier is taken
// relative to ReposRoot and may not escape it.
func (c Config) ResolveRepository(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.ErrEmptyRepository
	}

	var path string
	if explicit, ok := c.Repositories[id]; ok {
		path = explicit
	} else {
		root, err := filepath.Abs(c.ReposRoot)
		if err != nil {
			return "", errors.Wrap(errors.ErrTypeRepositoryNotFound, "invalid repos root", err)
		}
		path = filepath.Join(root, filepath.FromSlash(id))
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", errors.Newf(errors.ErrTypeRepositoryNotFound, "repository %q is outside the repos root", id)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeRepositoryNotFound, "repository \""+id+"\" not found", err)
	}
	if !info.IsDir() {
		return "", errors.Newf(errors.ErrTypeRepositoryNotFound, "repository %q is not a directory", id)
	}
	return path, nil
}
