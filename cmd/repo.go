package cmd

import (
	"os"
	"path/filepath"
	"sort"

	gperrors "github.com/markrai/gitpow/internal/errors"
	"github.com/spf13/cobra"
)

func newRepoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repository identifiers in the config file",
	}
	cmd.AddCommand(newRepoAddCmd(a), newRepoListCmd(a))
	return cmd
}

func newRepoAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add ID PATH",
		Short: "Map ID to a repository directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			path, err := filepath.Abs(args[1])
			if err != nil {
				return gperrors.Wrap(gperrors.ErrTypeValidation, "invalid repository path", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return gperrors.Wrap(gperrors.ErrTypeRepositoryNotFound, "repository directory not found", err)
			}
			if !info.IsDir() {
				return gperrors.Newf(gperrors.ErrTypeValidation, "%s is not a directory", path)
			}
			if err := a.config.SetRepository(id, path); err != nil {
				return gperrors.Wrap(gperrors.ErrTypeConfig, "failed to save repository", err)
			}
			return report(cmd, "Added "+id, path)
		},
	}
}

// repoEntry is one line of `repo list`.
type repoEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

func newRepoListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured repository identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos := a.config.Snapshot().Repositories
			entries := make([]repoEntry, 0, len(repos))
			for id, path := range repos {
				entries = append(entries, repoEntry{ID: id, Path: path})
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
}
