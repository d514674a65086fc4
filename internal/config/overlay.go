package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. GITPOW_REPOS_ROOT.
const EnvPrefix = "GITPOW"

// Keys that may be overridden by flags or environment.
const (
	KeyReposRoot      = "repos_root"
	KeyGitBinary      = "git_binary"
	KeyDebug          = "debug"
	KeyStaleAfterDays = "stale_after_days"
	KeyDefaultLimit   = "default_limit"
	KeyContextLines   = "context_lines"
	KeyDiffBackend    = "diff.backend"
	KeyTraceExporter  = "tracing.exporter"
	KeyTraceEndpoint  = "tracing.endpoint"
)

// NewViper returns a viper instance reading GITPOW_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		KeyReposRoot, KeyGitBinary, KeyDebug, KeyStaleAfterDays, KeyDefaultLimit,
		KeyContextLines, KeyDiffBackend, KeyTraceExporter, KeyTraceEndpoint,
	} {
		_ = v.BindEnv(key)
	}
	return v
}

// Overlay applies every key set in v on top of base and returns a new
// snapshot. base is not modified.
func Overlay(base Config, v *viper.Viper) Config {
	out := *base.Clone()
	if v == nil {
		return out
	}
	if v.IsSet(KeyReposRoot) {
		out.ReposRoot = v.GetString(KeyReposRoot)
	}
	if v.IsSet(KeyGitBinary) {
		out.GitBinary = v.GetString(KeyGitBinary)
	}
	if v.IsSet(KeyDebug) {
		out.Debug = v.GetBool(KeyDebug)
	}
	if v.IsSet(KeyStaleAfterDays) {
		out.StaleAfterDays = v.GetInt(KeyStaleAfterDays)
	}
	if v.IsSet(KeyDefaultLimit) {
		out.DefaultLimit = v.GetInt(KeyDefaultLimit)
	}
	if v.IsSet(KeyContextLines) {
		out.ContextLines = v.GetInt(KeyContextLines)
	}
	if v.IsSet(KeyDiffBackend) {
		out.Diff.Backend = v.GetString(KeyDiffBackend)
	}
	if v.IsSet(KeyTraceExporter) {
		out.Tracing.Exporter = v.GetString(KeyTraceExporter)
	}
	if v.IsSet(KeyTraceEndpoint) {
		out.Tracing.Endpoint = v.GetString(KeyTraceEndpoint)
	}
	return out.WithDefaults()
}
