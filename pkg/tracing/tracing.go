// Package tracing installs an OpenTelemetry tracer provider that writes
// spans through the stdout exporter, and offers small helpers for starting
// and ending spans around workflow steps.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/JaimeStill/formfill"

// Config controls span export. When Enabled is false the global no-op
// provider stays in place.
type Config struct {
	Enabled bool   `toml:"enabled"`
	Output  string `toml:"output"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled string
	Output  string
}

// Finalize applies environment variable overrides.
func (c *Config) Finalize(env *Env) error {
	if env == nil {
		return nil
	}
	if v := os.Getenv(env.Enabled); env.Enabled != "" && v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			c.Enabled = true
		case "0", "false", "FALSE", "False":
			c.Enabled = false
		default:
			return fmt.Errorf("invalid %s value: %q", env.Enabled, v)
		}
	}
	if v := os.Getenv(env.Output); env.Output != "" && v != "" {
		c.Output = v
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Output != "" {
		c.Output = overlay.Output
	}
}

// Provider owns the installed tracer provider and its output file.
type Provider struct {
	tp   *sdktrace.TracerProvider
	file *os.File
}

// Init installs the global tracer provider described by cfg. A disabled
// config returns a Provider whose Shutdown is a no-op.
func Init(cfg Config, serviceName, serviceVersion string) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	var (
		w    io.Writer = os.Stdout
		file *os.File
	)
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("create trace output: %w", err)
		}
		w, file = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	p, err := InitWithExporter(exporter, serviceName, serviceVersion)
	if err != nil {
		return nil, err
	}
	p.file = file
	return p, nil
}

// InitWithExporter installs a provider around the supplied exporter.
func InitWithExporter(exporter sdktrace.SpanExporter, serviceName, serviceVersion string) (*Provider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and closes the output file.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}

	err := p.tp.Shutdown(ctx)
	if p.file != nil {
		if cerr := p.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// StartSpan starts an internal span carrying the given string attributes.
func StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, trace.Span) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}

	return otel.Tracer(instrumentation).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(kv...),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
