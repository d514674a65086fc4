package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/markrai/gitpow/engine"
	"github.com/markrai/gitpow/internal/config"
	gperrors "github.com/markrai/gitpow/internal/errors"
	"github.com/markrai/gitpow/internal/logger"
	"github.com/markrai/gitpow/internal/tracing"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// version holds the current version of gitpow
// This will be set at build time via ldflags
var version = "dev"

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("gitpow version %s", version)
}

// app 保存一次命令执行期间的共享依赖
type app struct {
	configPath string
	repo       string

	viper   *viper.Viper
	logger  *zap.Logger
	config  *config.HotReloadManager
	tracing *tracing.Provider
	engine  *engine.Engine
}

// overlaySource applies flag and environment overrides to every snapshot
// of the watched config file.
type overlaySource struct {
	base engine.Source
	v    *viper.Viper
}

func (s overlaySource) Snapshot() config.Config {
	return config.Overlay(s.base.Snapshot(), s.v)
}

func newRootCmd(a *app) *cobra.Command {
	a.viper = config.NewViper()

	root := &cobra.Command{
		Use:   "gitpow",
		Short: "Structured views of a git repository",
		Long: `gitpow exposes a local git repository as structured JSON: branches and
their metadata, commit history, file diffs with hunks, merge conflicts,
and hunk-level staging.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetVersionTemplate(GetVersionString() + "\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: user config dir/gitpow/config.yaml)")
	flags.StringVarP(&a.repo, "repo", "r", ".", "repository identifier, relative to the repos root")
	flags.String("repos-root", "", "directory repository identifiers are resolved against")
	flags.String("git", "", "git binary to run")
	flags.String("diff-backend", "", "working-tree diff backend (git, native)")
	flags.String("trace", "", "tracing exporter (none, stdout, otlp)")
	flags.String("trace-endpoint", "", "OTLP collector endpoint")
	flags.Bool("debug", false, "enable debug output for troubleshooting")

	for key, name := range map[string]string{
		config.KeyReposRoot:     "repos-root",
		config.KeyGitBinary:     "git",
		config.KeyDiffBackend:   "diff-backend",
		config.KeyTraceExporter: "trace",
		config.KeyTraceEndpoint: "trace-endpoint",
		config.KeyDebug:         "debug",
	} {
		_ = a.viper.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		newBranchesCmd(a),
		newLogCmd(a),
		newCompareCmd(a),
		newDiffCmd(a),
		newFilesCmd(a),
		newStatusCmd(a),
		newConflictsCmd(a),
		newConflictCmd(a),
		newResolveCmd(a),
		newStageCmd(a),
		newUnstageCmd(a),
		newCommitCmd(a),
		newStashCmd(a),
		newRemotesCmd(a),
		newFetchCmd(a),
		newPullCmd(a),
		newPushCmd(a),
		newUpstreamCmd(a),
		newCheckoutCmd(a),
		newRebasePreviewCmd(a),
		newRebasePlanCmd(a),
		newRepoCmd(a),
	)
	return root
}

// setup 初始化日志、配置、追踪和引擎
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.logger, err = logger.New(a.viper.GetBool(config.KeyDebug)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	path := a.configPath
	if path == "" {
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	base, err := config.NewYAMLConfigManager(path)
	if err != nil {
		return err
	}
	if a.config, err = config.NewHotReloadManager(base, path, a.logger); err != nil {
		return err
	}
	a.config.OnConfigChange(func(c *config.Config) {
		a.logger.Debug("config reloaded", zap.String("repos_root", c.ReposRoot))
	})
	source := overlaySource{base: a.config, v: a.viper}

	cfg := source.Snapshot()
	if err := cfg.Validate(); err != nil {
		return gperrors.Wrap(gperrors.ErrTypeConfig, "invalid configuration", err)
	}
	if a.tracing, err = tracing.Setup(cmd.Context(), cfg.Tracing, cmd.ErrOrStderr()); err != nil {
		return err
	}

	a.engine = engine.New(source,
		engine.WithLogger(a.logger),
		engine.WithTracer(a.tracing.Tracer()))
	a.logger.Debug("gitpow ready",
		zap.String("config", path),
		zap.String("repos_root", cfg.ReposRoot),
		zap.String("diff_backend", cfg.Diff.Backend))
	return nil
}

// close 释放 setup 中创建的资源
func (a *app) close() {
	if a.tracing != nil {
		if err := a.tracing.Shutdown(context.Background()); err != nil && a.logger != nil {
			a.logger.Warn("failed to flush traces", zap.Error(err))
		}
	}
	if a.config != nil {
		_ = a.config.Stop()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Execute runs the root command.
func Execute() error { return ExecuteContext(context.Background()) }

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
