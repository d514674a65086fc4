package config

import (
	"fmt"
	"strings"
)

// Config is an immutable snapshot of engine settings. Callers read one
// snapshot per operation and never mutate it in place.
type Config struct {
	Version string `json:"version" yaml:"version" mapstructure:"version"`

	// ReposRoot is the directory repository identifiers are resolved against.
	ReposRoot string `json:"repos_root" yaml:"repos_root" mapstructure:"repos_root"`
	// Repositories maps identifiers to explicit paths and takes precedence
	// over ReposRoot.
	Repositories map[string]string `json:"repositories,omitempty" yaml:"repositories,omitempty" mapstructure:"repositories"`

	GitBinary      string `json:"git_binary" yaml:"git_binary" mapstructure:"git_binary"`
	Debug          bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
	StaleAfterDays int    `json:"stale_after_days" yaml:"stale_after_days" mapstructure:"stale_after_days"`
	DefaultLimit   int    `json:"default_limit" yaml:"default_limit" mapstructure:"default_limit"`
	ContextLines   int    `json:"context_lines" yaml:"context_lines" mapstructure:"context_lines"`

	Diff    DiffConfig    `json:"diff" yaml:"diff" mapstructure:"diff"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

// DiffConfig selects how working-tree diffs are produced.
type DiffConfig struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"` // git, native
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Exporter string `json:"exporter" yaml:"exporter" mapstructure:"exporter"` // none, stdout, otlp
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
}

const (
	BackendGit    = "git"
	BackendNative = "native"

	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Version:        "1.0.0",
		ReposRoot:      ".",
		GitBinary:      "git",
		StaleAfterDays: 90,
		DefaultLimit:   200,
		ContextLines:   3,
		Diff:           DiffConfig{Backend: BackendGit},
		Tracing:        TracingConfig{Exporter: ExporterNone},
	}
}

// WithDefaults fills zero values from Default.
func (c Config) WithDefaults() Config {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.ReposRoot == "" {
		c.ReposRoot = d.ReposRoot
	}
	if c.GitBinary == "" {
		c.GitBinary = d.GitBinary
	}
	if c.StaleAfterDays <= 0 {
		c.StaleAfterDays = d.StaleAfterDays
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.ContextLines <= 0 {
		c.ContextLines = d.ContextLines
	}
	if c.Diff.Backend == "" {
		c.Diff.Backend = d.Diff.Backend
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = d.Tracing.Exporter
	}
	return c
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch strings.ToLower(c.Diff.Backend) {
	case BackendGit, BackendNative:
	default:
		return fmt.Errorf("unknown diff backend %q", c.Diff.Backend)
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("unknown tracing exporter %q", c.Tracing.Exporter)
	}
	return nil
}

// Clone returns a deep copy so snapshots never share the repositories map.
func (c *Config) Clone() *Config {
	out := *c
	if c.Repositories != nil {
		out.Repositories = make(map[string]string, len(c.Repositories))
		for k, v := range c.Repositories {
			out.Repositories[k] = v
		}
	}
	return &out
}

// Manager 配置管理器接口
type Manager interface {
	// Load 加载配置文件
	Load() (*Config, error)

	// Save 保存配置文件（原子操作）
	Save(config *Config) error

	// CreateDefaultConfig 创建默认配置
	CreateDefaultConfig() error

	// SetRepository 更新指定仓库标识对应的路径
	SetRepository(id, path string) error
}
