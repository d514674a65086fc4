// Package engine is the entry point of gitpow. Every operation takes a
// repository identifier, reads one configuration snapshot, resolves and
// opens the repository, and delegates to the component packages. Nothing
// is cached between calls.
package engine

import (
	"context"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/markrai/gitpow/internal/config"
	"github.com/markrai/gitpow/internal/git"
	"github.com/markrai/gitpow/internal/logger"
	"github.com/markrai/gitpow/internal/tracing"
	"github.com/markrai/gitpow/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Source yields the configuration snapshot read at the start of each call.
// *config.HotReloadManager satisfies it.
type Source interface {
	Snapshot() config.Config
}

type staticSource config.Config

func (s staticSource) Snapshot() config.Config { c := config.Config(s); return *c.Clone() }

// Static wraps a fixed configuration.
func Static(cfg config.Config) Source {
	return staticSource(cfg.WithDefaults())
}

// Engine 仓库引擎
type Engine struct {
	source Source
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to every component.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.OrNop(l) }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithClock sets the time source used for staleness.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine reading configuration from source.
func New(source Source, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		logger: zap.NewNop(),
		tracer: otel.Tracer("github.com/markrai/gitpow/engine"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// session is the per-call view of one repository.
type session struct {
	cfg    config.Config
	dir    string
	runner git.Runner
	logger *zap.Logger
}

func (e *Engine) open(repoID string) (*session, error) {
	cfg := e.source.Snapshot().WithDefaults()
	dir, err := cfg.ResolveRepository(repoID)
	if err != nil {
		return nil, err
	}
	log := e.logger.With(zap.String("repo", repoID))
	return &session{
		cfg:    cfg,
		dir:    dir,
		runner: git.NewExecRunner(cfg.GitBinary, log),
		logger: log,
	}, nil
}

func (s *session) repository() (*gogit.Repository, error) {
	return git.Open(s.dir)
}

func (e *Engine) start(ctx context.Context, op, repoID string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "engine."+op,
		trace.WithAttributes(attribute.String("gitpow.repo", repoID)))
}

func logDegraded(l *zap.Logger, op string, degraded []model.Degradation) {
	for _, d := range degraded {
		l.Warn("degraded result",
			zap.String("op", op),
			zap.String("kind", string(d.Kind)),
			zap.String("subject", d.Subject))
	}
}

// finish closes span with err; used as `defer finish(span, &err)`.
func finish(span trace.Span, err *error) {
	tracing.End(span, *err)
}
