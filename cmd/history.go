package cmd

import (
	"github.com/markrai/gitpow/engine"
	"github.com/spf13/cobra"
)

func newBranchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List branches with merge, staleness and fingerprint metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.engine.Branches(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newLogCmd(a *app) *cobra.Command {
	var (
		limit int
		local bool
		count bool
	)
	cmd := &cobra.Command{
		Use:   "log [REV]",
		Short: "Walk commit history in topological order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if count {
				n, err := a.engine.CommitCount(ctx, a.repo)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"count": n})
			}

			q := engine.LogQuery{Limit: limit, Local: local}
			if len(args) > 0 {
				q.Rev = args[0]
			}
			commits, err := a.engine.Log(ctx, a.repo, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), commits)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits (default from config)")
	cmd.Flags().BoolVar(&local, "local", false, "tag commits with REV instead of the branches they tip")
	cmd.Flags().BoolVar(&count, "count", false, "only count commits reachable from any branch")
	return cmd
}

// compareResult is the JSON shape of the compare command.
type compareResult struct {
	Ahead      int  `json:"ahead"`
	Behind     int  `json:"behind"`
	Descendant bool `json:"descendant"`
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare LOCAL UPSTREAM",
		Short: "Count commits ahead of and behind another revision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ab, err := a.engine.AheadBehind(ctx, a.repo, args[0], args[1])
			if err != nil {
				return err
			}
			desc, err := a.engine.IsDescendant(ctx, a.repo, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), compareResult{Ahead: ab.Ahead, Behind: ab.Behind, Descendant: desc})
		},
	}
}
