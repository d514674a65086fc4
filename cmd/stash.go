package cmd

import (
	"github.com/spf13/cobra"
)

func newStashCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "List and manage stash entries",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stash entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.engine.StashList(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	var message string
	push := &cobra.Command{
		Use:   "push",
		Short: "Stash local changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.engine.StashPush(cmd.Context(), a.repo, message)
			if err != nil {
				return err
			}
			return report(cmd, "Stashed changes", out)
		},
	}
	push.Flags().StringVarP(&message, "message", "m", "", "stash message")

	pop := &cobra.Command{
		Use:   "pop",
		Short: "Apply and drop the newest entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.engine.StashPop(cmd.Context(), a.repo)
			if err != nil {
				return err
			}
			return report(cmd, "Popped stash", out)
		},
	}

	apply := &cobra.Command{
		Use:   "apply REF",
		Short: "Apply an entry without dropping it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.engine.StashApply(cmd.Context(), a.repo, args[0])
			if err != nil {
				return err
			}
			return report(cmd, "Applied "+args[0], out)
		},
	}

	drop := &cobra.Command{
		Use:   "drop REF",
		Short: "Drop an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.engine.StashDrop(cmd.Context(), a.repo, args[0])
			if err != nil {
				return err
			}
			return report(cmd, "Dropped "+args[0], out)
		},
	}

	cmd.AddCommand(list, push, pop, apply, drop)
	return cmd
}
