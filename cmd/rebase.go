package cmd

import (
	"fmt"
	"io"
	"os"

	gperrors "github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/rebase"
	"github.com/markrai/gitpow/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRebasePreviewCmd(a *app) *cobra.Command {
	var onto, from string
	cmd := &cobra.Command{
		Use:   "rebase-preview",
		Short: "List the commits a rebase would replay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.engine.RebasePreview(cmd.Context(), a.repo, onto, from)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&onto, "onto", rebase.DefaultOnto, "new base")
	cmd.Flags().StringVar(&from, "from", rebase.DefaultFrom, "tip of the commits to replay")
	return cmd
}

// planEntry is one step of a plan file. Plan files are YAML or JSON lists.
type planEntry struct {
	ID      string `yaml:"sha"`
	Action  string `yaml:"action"`
	Message string `yaml:"message"`
}

// parsePlan 解析 rebase 计划文件
func parsePlan(data []byte) ([]model.RebasePlanItem, error) {
	var entries []planEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, gperrors.Wrap(gperrors.ErrTypeValidation, "invalid rebase plan", err)
	}
	items := make([]model.RebasePlanItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.RebasePlanItem{ID: e.ID, Action: e.Action, Message: e.Message})
	}
	return items, nil
}

func newRebasePlanCmd(a *app) *cobra.Command {
	var (
		onto, from, file string
		dryRun           bool
	)
	cmd := &cobra.Command{
		Use:   "rebase-plan",
		Short: "Check an interactive rebase plan",
		Long: `Check an interactive rebase plan read from --file or stdin. The plan
is a YAML or JSON list of {sha, action, message}. Only dry runs are
supported; ids are expanded and actions normalized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
				return fmt.Errorf("failed to read rebase plan: %w", err)
			}
			items, err := parsePlan(data)
			if err != nil {
				return err
			}
			res, err := a.engine.RebasePlan(cmd.Context(), a.repo, onto, from, items, dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&onto, "onto", rebase.DefaultOnto, "new base")
	cmd.Flags().StringVar(&from, "from", rebase.DefaultFrom, "tip of the commits to replay")
	cmd.Flags().StringVarP(&file, "file", "f", "", "plan file (default: stdin)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "only check the plan")
	return cmd
}
