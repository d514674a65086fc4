package diff

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/model"
)

// NativeDiffer computes working-tree diffs in process: blobs come from the
// object graph, the working file from disk, and the line diff from the
// structured builder. Untracked files produce an empty diff, as git does.
type NativeDiffer struct {
	Repo    *gogit.Repository
	Dir     string
	Context int
}

type side struct {
	content string
	present bool
}

// WorkingDiff mirrors TextDiffer.WorkingDiff without spawning git.
func (d *NativeDiffer) WorkingDiff(ctx context.Context, path string, staged bool) (*model.FileDiff, error) {
	if path == "" {
		return nil, errors.ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexed, err := d.indexSide(path)
	if err != nil {
		return nil, err
	}

	var from, to side
	if staged {
		if from, err = d.headSide(path); err != nil {
			return nil, err
		}
		to = indexed
	} else {
		if !indexed.present {
			return NewAssembler(path).Result(), nil
		}
		from = indexed
		if to, err = d.worktreeSide(path); err != nil {
			return nil, err
		}
	}

	if !from.present && !to.present {
		return NewAssembler(path).Result(), nil
	}
	if from.present && to.present && from.content == to.content {
		return NewAssembler(path).Result(), nil
	}

	sides := FileSides{}
	if from.present {
		sides.OldPath = path
	}
	if to.present {
		sides.NewPath = path
	}
	return Build(path, LinesBuilder{Old: from.content, New: to.content, Sides: sides, Context: d.Context})
}

func (d *NativeDiffer) indexSide(path string) (side, error) {
	idx, err := d.Repo.Storer.Index()
	if err != nil {
		return side{}, errors.Wrap(errors.ErrTypeIO, "failed to read index", err)
	}
	entry, err := idx.Entry(path)
	if err != nil {
		if stderrors.Is(err, index.ErrEntryNotFound) {
			return side{}, nil
		}
		return side{}, errors.Wrap(errors.ErrTypeIO, "failed to read index entry", err)
	}
	content, err := d.blob(entry.Hash)
	if err != nil {
		return side{}, err
	}
	return side{content: content, present: true}, nil
}

func (d *NativeDiffer) headSide(path string) (side, error) {
	head, err := d.Repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return side{}, nil
		}
		return side{}, errors.Wrap(errors.ErrTypeRevision, "cannot resolve HEAD", err)
	}
	commit, err := d.Repo.CommitObject(head.Hash())
	if err != nil {
		return side{}, errors.Wrap(errors.ErrTypeRevision, "cannot read HEAD commit", err)
	}
	file, err := commit.File(path)
	if err != nil {
		if stderrors.Is(err, object.ErrFileNotFound) {
			return side{}, nil
		}
		return side{}, errors.Wrap(errors.ErrTypeIO, "failed to read "+path+" at HEAD", err)
	}
	content, err := file.Contents()
	if err != nil {
		return side{}, errors.Wrap(errors.ErrTypeIO, "failed to read "+path+" at HEAD", err)
	}
	return side{content: content, present: true}, nil
}

func (d *NativeDiffer) worktreeSide(path string) (side, error) {
	data, err := os.ReadFile(filepath.Join(d.Dir, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return side{}, nil
		}
		return side{}, errors.Wrap(errors.ErrTypeIO, "failed to read "+path, err)
	}
	return side{content: string(data), present: true}, nil
}

func (d *NativeDiffer) blob(hash plumbing.Hash) (string, error) {
	blob, err := d.Repo.BlobObject(hash)
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeIO, "failed to read blob "+hash.String(), err)
	}
	r, err := blob.Reader()
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeIO, "failed to open blob "+hash.String(), err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeIO, "failed to read blob "+hash.String(), err)
	}
	return string(data), nil
}
