// Package tracing sets up the OpenTelemetry tracer used around engine
// operations.
package tracing

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/markrai/gitpow/internal/config"
	"github.com/markrai/gitpow/internal/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "gitpow"

const instrumentation = "github.com/markrai/gitpow"

// Provider owns the tracer provider and its exporter.
type Provider struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Noop returns a provider that records nothing.
func Noop() *Provider {
	return &Provider{
		tracer:   noop.NewTracerProvider().Tracer(instrumentation),
		shutdown: func(context.Context) error { return nil },
	}
}

// Setup builds a provider for cfg. Stdout spans are written to w (stderr
// when nil). The provider is also installed as the global one.
func Setup(ctx context.Context, cfg config.TracingConfig, w io.Writer) (*Provider, error) {
	var opt sdktrace.TracerProviderOption
	switch strings.ToLower(cfg.Exporter) {
	case "", config.ExporterNone:
		return Noop(), nil
	case config.ExporterStdout:
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, errors.Wrap(errors.ErrTypeConfig, "failed to create stdout exporter", err)
		}
		opt = sdktrace.WithSyncer(exp)
	case config.ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, errors.Wrap(errors.ErrTypeConfig, "failed to create OTLP exporter", err)
		}
		opt = sdktrace.WithBatcher(exp)
	default:
		return nil, errors.Newf(errors.ErrTypeConfig, "unknown tracing exporter %q", cfg.Exporter).
			WithSuggestion("use one of none, stdout, otlp")
	}

	tp := sdktrace.NewTracerProvider(
		opt,
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)
	otel.SetTracerProvider(tp)
	return &Provider{tracer: tp.Tracer(instrumentation), shutdown: tp.Shutdown}, nil
}

// Tracer returns the tracer for engine spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// End closes span, recording err when it is not nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
