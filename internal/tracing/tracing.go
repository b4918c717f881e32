// Package tracing sets up the OpenTelemetry provider for per-dispatch spans.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names accepted in Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterFile   = "file"
	ExporterOTLP   = "otlp"
)

const defaultServiceName = "pomodoro"

// Config configures the tracing subsystem.
type Config struct {
	// Exporter is one of none, stdout, file or otlp. Empty means none.
	Exporter     string
	FilePath     string
	OTLPEndpoint string
	ServiceName  string
}

// Provider wraps the SDK provider, or a no-op tracer when export is off.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	closers  []func() error
}

// NewProvider builds a provider for cfg and installs it globally.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	var (
		exporter sdktrace.SpanExporter
		closers  []func() error
		err      error
	)
	switch cfg.Exporter {
	case ExporterNone, "":
		return &Provider{tracer: noop.NewTracerProvider().Tracer(serviceName)}, nil

	case ExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}

	case ExporterFile:
		if cfg.FilePath == "" {
			return nil, errors.New("create file exporter: file path is empty")
		}
		path := filepath.Clean(cfg.FilePath)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create trace directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(file))
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("create file exporter: %w", err)
		}
		closers = append(closers, file.Close)

	case ExporterOTLP:
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported exporter %q", cfg.Exporter)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
		closers:  closers,
	}, nil
}

// Tracer returns the tracer; it is a no-op tracer when export is off.
func (provider *Provider) Tracer() trace.Tracer {
	return provider.tracer
}

// Enabled reports whether spans are exported.
func (provider *Provider) Enabled() bool {
	return provider.provider != nil
}

// Shutdown flushes pending spans and releases the exporter.
func (provider *Provider) Shutdown(ctx context.Context) error {
	if provider.provider == nil {
		return nil
	}
	errs := []error{provider.provider.Shutdown(ctx)}
	for _, closeFn := range provider.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
