package cmd

import (
	"github.com/markrai/gitpow/model"
	"github.com/spf13/cobra"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		staged  bool
		commit  string
		against string
	)
	cmd := &cobra.Command{
		Use:   "diff PATH",
		Short: "Diff one file with hunk boundaries",
		Long: `Diff one file. Without flags the working tree is diffed against the
index; --staged diffs the index against HEAD; --commit diffs a commit
against its first parent; --against diffs a ref against its first parent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			var (
				fd  *model.FileDiff
				err error
			)
			switch {
			case commit != "":
				fd, err = a.engine.CommitDiff(ctx, a.repo, commit, path)
			case against != "":
				fd, err = a.engine.RefDiff(ctx, a.repo, against, path)
			default:
				fd, err = a.engine.WorkingDiff(ctx, a.repo, path, staged)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), fd)
		},
	}
	cmd.Flags().BoolVar(&staged, "staged", false, "diff the index against HEAD")
	cmd.Flags().StringVar(&commit, "commit", "", "diff this commit against its first parent")
	cmd.Flags().StringVar(&against, "against", "", "diff this ref against its first parent")
	cmd.MarkFlagsMutuallyExclusive("staged", "commit", "against")
	return cmd
}

// filesResult is the JSON shape of the files command.
type filesResult struct {
	Files []model.FileChange `json:"files"`
	Stats *model.CommitStats `json:"stats"`
}

func newFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files REV",
		Short: "List the files a commit touched with change counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files, err := a.engine.CommitFiles(ctx, a.repo, args[0])
			if err != nil {
				return err
			}
			stats, err := a.engine.CommitStats(ctx, a.repo, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), filesResult{Files: files, Stats: stats})
		},
	}
}
