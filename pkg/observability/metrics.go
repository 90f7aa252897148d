package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MetricsRecorder records render engine metrics.
// Use NewMetricsRecorder for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRender records a finished render. kind is empty on success.
	RecordRender(ctx context.Context, templateName string, duration time.Duration, kind string)

	// RecordCompile records a compile triggered by a cache miss.
	RecordCompile(ctx context.Context, templateName string, duration time.Duration, err error)

	// RecordCacheLookup records whether a lookup found a compiled template.
	RecordCacheLookup(ctx context.Context, templateName string, hit bool)
}

type otelMetrics struct {
	renders       metric.Int64Counter
	renderLatency metric.Float64Histogram
	renderErrors  metric.Int64Counter
	compiles      metric.Int64Counter
	compileErrors metric.Int64Counter
	cacheLookups  metric.Int64Counter
}

func newOtelMetrics(provider metric.MeterProvider) (*otelMetrics, error) {
	meter := provider.Meter(instrumentationName)

	renders, err := meter.Int64Counter("bake.render.count",
		metric.WithDescription("Number of template renders"),
	)
	if err != nil {
		return nil, err
	}

	renderLatency, err := meter.Float64Histogram("bake.render.latency_ms",
		metric.WithDescription("Render latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	renderErrors, err := meter.Int64Counter("bake.render.errors",
		metric.WithDescription("Number of failed renders by error kind"),
	)
	if err != nil {
		return nil, err
	}

	compiles, err := meter.Int64Counter("bake.compile.count",
		metric.WithDescription("Number of template compiles"),
	)
	if err != nil {
		return nil, err
	}

	compileErrors, err := meter.Int64Counter("bake.compile.errors",
		metric.WithDescription("Number of failed template compiles"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter("bake.cache.lookups",
		metric.WithDescription("Compiled template cache lookups"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		renders:       renders,
		renderLatency: renderLatency,
		renderErrors:  renderErrors,
		compiles:      compiles,
		compileErrors: compileErrors,
		cacheLookups:  cacheLookups,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by provider. A nil
// provider falls back to the global OTel meter provider. If instrument
// creation fails the error is logged and a no-op recorder is returned.
func NewMetricsRecorder(provider metric.MeterProvider, logger *zap.Logger) MetricsRecorder {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	m, err := newOtelMetrics(provider)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics initialization failed, using no-op recorder", zap.Error(err))
		}
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordRender(ctx context.Context, templateName string, duration time.Duration, kind string) {
	attrs := metric.WithAttributes(attribute.String("template", templateName))

	m.renders.Add(ctx, 1, attrs)
	m.renderLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if kind != "" {
		m.renderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("template", templateName),
			attribute.String("kind", kind),
		))
	}
}

func (m *otelMetrics) RecordCompile(ctx context.Context, templateName string, _ time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("template", templateName))

	m.compiles.Add(ctx, 1, attrs)
	if err != nil {
		m.compileErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordCacheLookup(ctx context.Context, templateName string, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("template", templateName),
		attribute.Bool("hit", hit),
	))
}
