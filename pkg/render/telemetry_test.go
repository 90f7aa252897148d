package render_test

import (
	"context"
	"io"
	"testing"
	"testing/fstest"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-bake/pkg/model"
	"github.com/goliatone/go-bake/pkg/observability"
	"github.com/goliatone/go-bake/pkg/render"
)

func TestEngine_LogsOutermostFailureOnce(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := newEngine(t, fstest.MapFS{
		"outer.tpl": tpl(`{{ partial("missing.tpl") }}`),
	}, render.WithLogger(zap.New(core)))

	if err := engine.Render(context.Background(), nil, "outer.tpl", io.Discard); err == nil {
		t.Fatalf("expected failure")
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	fields := warnings[0].ContextMap()
	if fields["template"] != "outer.tpl" || fields["kind"] != string(render.KindSourceNotFound) {
		t.Fatalf("unexpected warning fields %v", fields)
	}
	if logs.FilterMessage("template compiled").Len() != 1 {
		t.Fatalf("expected compile debug entry")
	}
}

func TestEngine_LogsCacheHits(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := newEngine(t, fstest.MapFS{"a.tpl": tpl("a")}, render.WithLogger(zap.New(core)))

	for i := 0; i < 2; i++ {
		if _, err := engine.RenderString(context.Background(), nil, "a.tpl"); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if logs.FilterMessage("template cache hit").Len() != 1 {
		t.Fatalf("expected one cache hit entry, got %d", logs.FilterMessage("template cache hit").Len())
	}
}

func TestEngine_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	engine := newEngine(t, fstest.MapFS{
		"outer.tpl": tpl(`{{ partial("inner.tpl", m) }}`),
		"inner.tpl": tpl(`{{ v }}`),
	}, render.WithSpanManager(observability.NewSpanManager(tp)))

	got, err := engine.RenderString(context.Background(), model.Model{"m": map[string]any{"v": "x"}}, "outer.tpl")
	if err != nil || got != "x" {
		t.Fatalf("render: %q %v", got, err)
	}

	counts := map[string]int{}
	var outer, inner sdktrace.ReadOnlySpan
	for _, span := range exporter.GetSpans().Snapshots() {
		counts[span.Name()]++
		if span.Name() != "bake.render" {
			continue
		}
		for _, attr := range span.Attributes() {
			if attr.Key == "template.name" && attr.Value.AsString() == "outer.tpl" {
				outer = span
			}
			if attr.Key == "template.name" && attr.Value.AsString() == "inner.tpl" {
				inner = span
			}
		}
	}
	if counts["bake.render"] != 2 || counts["bake.compile"] != 2 {
		t.Fatalf("unexpected span counts %v", counts)
	}
	if outer == nil || inner == nil {
		t.Fatalf("expected outer and inner render spans")
	}
	if inner.Parent().SpanID() != outer.SpanContext().SpanID() {
		t.Fatalf("expected nested render span to be a child of the outer render")
	}
}
