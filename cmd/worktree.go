package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/markrai/gitpow/model"
	"github.com/markrai/gitpow/ui"
	"github.com/spf13/cobra"
)

// report prints a status bar to stderr and the operation result as JSON.
func report(cmd *cobra.Command, message, output string) error {
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), ui.StatusBar(message, ui.BarSuccess))
	return printJSON(cmd.OutOrStdout(), model.OpResult{
		Success: true,
		Message: message,
		Output:  strings.TrimSpace(output),
	})
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.engine.Status(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newConflictsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List unmerged paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.engine.Conflicts(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
}

func newConflictCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conflict PATH",
		Short: "Show the base, ours, theirs and working versions of a conflicted file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.engine.ConflictContent(cmd.Context(), a.repo, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "resolve PATH",
		Short: "Write resolved content to a conflicted file and stage it",
		Long: `Write resolved content to a conflicted file and stage it. The content
is read from --file, or from stdin when --file is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if file != "" {
				data, err = os.ReadFile(file)
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read resolved content: %w", err)
			}
			if err := a.engine.ResolveConflict(cmd.Context(), a.repo, args[0], string(data)); err != nil {
				return err
			}
			return report(cmd, "Resolved "+args[0], "")
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the resolved content")
	return cmd
}

// hunkSelection returns nil when --hunks was not given, meaning the whole
// file.
func hunkSelection(cmd *cobra.Command) ([]int, error) {
	if !cmd.Flags().Changed("hunks") {
		return nil, nil
	}
	hunks, err := cmd.Flags().GetIntSlice("hunks")
	if err != nil {
		return nil, err
	}
	if hunks == nil {
		hunks = []int{}
	}
	return hunks, nil
}

func newStageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage PATH",
		Short: "Stage a file, or only some of its hunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hunks, err := hunkSelection(cmd)
			if err != nil {
				return err
			}
			if err := a.engine.Stage(cmd.Context(), a.repo, args[0], hunks); err != nil {
				return err
			}
			return report(cmd, "Staged "+args[0], "")
		},
	}
	cmd.Flags().IntSlice("hunks", nil, "zero-based hunk indices of the unstaged diff")
	return cmd
}

func newUnstageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unstage PATH",
		Short: "Unstage a file, or only some of its hunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hunks, err := hunkSelection(cmd)
			if err != nil {
				return err
			}
			if err := a.engine.Unstage(cmd.Context(), a.repo, args[0], hunks); err != nil {
				return err
			}
			return report(cmd, "Unstaged "+args[0], "")
		},
	}
	cmd.Flags().IntSlice("hunks", nil, "zero-based hunk indices of the staged diff")
	return cmd
}

func newCommitCmd(a *app) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.engine.Commit(cmd.Context(), a.repo, message)
			if err != nil {
				return err
			}
			return report(cmd, "Committed successfully", id)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}
