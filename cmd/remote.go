package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	gperrors "github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/model"
	"github.com/markrai/gitpow/ui"
	"github.com/spf13/cobra"
)

func newRemotesCmd(a *app) *cobra.Command {
	var table bool
	cmd := &cobra.Command{
		Use:   "remotes",
		Short: "List configured remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remotes, err := a.engine.Remotes(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			if !table {
				if remotes == nil {
					remotes = []git.Remote{}
				}
				return printJSON(cmd.OutOrStdout(), remotes)
			}
			if len(remotes) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No git remotes found")
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), formatRemoteTable(remotes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "print a table instead of JSON")
	return cmd
}

// formatRemoteTable 格式化远程仓库表格
func formatRemoteTable(remotes []git.Remote) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Remote\tFetch\tPush\n")
	fmt.Fprintf(w, "------\t-----\t----\n")
	for _, r := range remotes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, orDash(r.FetchURL), orDash(r.PushURL))
	}
	w.Flush()
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newFetchCmd(a *app) *cobra.Command {
	var progress bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all remotes, skipping those that need credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var (
				res *model.FetchResult
				err error
			)
			if progress && isTerminal(cmd.ErrOrStderr()) {
				var v any
				v, err = ui.RunProgress(ctx, "Fetching remotes…", func(ctx context.Context) (any, error) {
					return a.engine.Fetch(ctx, a.repo)
				}, tea.WithOutput(cmd.ErrOrStderr()))
				if err == nil {
					res = v.(*model.FetchResult)
				}
			} else {
				res, err = a.engine.Fetch(ctx, a.repo)
			}
			if err != nil {
				return err
			}

			for _, name := range res.Skipped {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
					ui.StatusBar("Skipped "+name+": "+color.YellowString("authentication unavailable"), ui.BarWarning))
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&progress, "progress", false, "show a spinner while fetching")
	return cmd
}

// isTerminal reports whether w is a character device.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func newPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.engine.Pull(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			return report(cmd, "Pulled successfully", out)
		},
	}
}

func newPushCmd(a *app) *cobra.Command {
	var setUpstream string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				out string
				err error
			)
			if setUpstream != "" {
				out, err = a.engine.PushSetUpstream(cmd.Context(), a.repo, setUpstream)
			} else {
				out, err = a.engine.Push(cmd.Context(), a.repo)
			}
			if err != nil {
				return err
			}
			return report(cmd, "Pushed successfully", out)
		},
	}
	cmd.Flags().StringVarP(&setUpstream, "set-upstream", "u", "", "push BRANCH to origin and track it")
	return cmd
}

func newUpstreamCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upstream",
		Short: "Compare the current branch with its upstream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.engine.Upstream(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newCheckoutCmd(a *app) *cobra.Command {
	var (
		detach   bool
		previous bool
	)
	cmd := &cobra.Command{
		Use:   "checkout [TARGET]",
		Short: "Switch branches or detach HEAD at a commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			if previous {
				prev, ok, err := a.engine.PreviousBranch(ctx, a.repo)
				if err != nil {
					return err
				}
				if !ok {
					return gperrors.New(gperrors.ErrTypeRevision, "no previous branch in the reflog")
				}
				target = prev
			}
			if target == "" {
				return gperrors.New(gperrors.ErrTypeValidation, "a branch or commit is required")
			}

			var (
				out string
				err error
			)
			if detach {
				out, err = a.engine.CheckoutCommit(ctx, a.repo, target)
			} else {
				out, err = a.engine.CheckoutBranch(ctx, a.repo, target)
			}
			if err != nil {
				return err
			}
			return report(cmd, "Checked out "+target, out)
		},
	}
	cmd.Flags().BoolVar(&detach, "detach", false, "detach HEAD at TARGET")
	cmd.Flags().BoolVar(&previous, "previous", false, "return to the branch HEAD last left")
	return cmd
}
