// Package telemetry sets up OpenTelemetry tracing and metrics.
//
// The graph and scheduler packages record through the global otel providers;
// until Init installs real providers those calls are no-ops.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted in Config.
const (
	ExporterNone       = "none"
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
)

// ErrUnknownExporter is returned for an exporter name Init does not know.
var ErrUnknownExporter = errors.New("unknown exporter")

// Config controls telemetry behavior.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Traces is "none" or "stdout".
	Traces string
	// Metrics is "none", "stdout" or "prometheus".
	Metrics string
	// Writer receives stdout exporter output. Defaults to os.Stderr so it
	// never mixes with command output.
	Writer io.Writer
}

// Provider owns the installed providers.
type Provider struct {
	shutdownFuncs []func(context.Context) error
	metrics       http.Handler
}

// Init installs trace and metric providers according to cfg and returns a
// Provider whose Shutdown flushes them.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "adroit"
	}
	p := &Provider{}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	switch cfg.Traces {
	case "", ExporterNone:
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer))
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		tp := trace.NewTracerProvider(
			trace.WithBatcher(exporter),
			trace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	default:
		return nil, fmt.Errorf("%w: traces=%s", ErrUnknownExporter, cfg.Traces)
	}

	switch cfg.Metrics {
	case "", ExporterNone:
	case ExporterStdout:
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer))
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		mp := metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exporter)),
		)
		otel.SetMeterProvider(mp)
		p.shutdownFuncs = append(p.shutdownFuncs, mp.Shutdown)
	case ExporterPrometheus:
		// A private registry keeps repeated Init calls from colliding on the
		// default one.
		reg := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		mp := metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(exporter),
		)
		otel.SetMeterProvider(mp)
		p.metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		p.shutdownFuncs = append(p.shutdownFuncs, mp.Shutdown)
	default:
		return nil, fmt.Errorf("%w: metrics=%s", ErrUnknownExporter, cfg.Metrics)
	}

	return p, nil
}

// MetricsHandler returns the /metrics handler, or nil unless metrics are
// exported to prometheus.
func (p *Provider) MetricsHandler() http.Handler {
	return p.metrics
}

// Shutdown flushes and stops every installed provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
