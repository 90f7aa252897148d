package render

import (
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/extract"
	"github.com/goliatone/go-bake/pkg/observability"
	"github.com/goliatone/go-bake/pkg/render/template"
)

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets where template source is read from. It also feeds the
// default compiler's includes.
func WithResolver(resolver template.Source) Option {
	return func(e *Engine) {
		e.resolver = resolver
	}
}

// WithCompiler replaces the default pongo2 compiler.
func WithCompiler(compiler template.Compiler) Option {
	return func(e *Engine) {
		e.compiler = compiler
	}
}

// WithRegistry sets the extractor registry consulted before default lookup.
func WithRegistry(registry extract.Registry) Option {
	return func(e *Engine) {
		e.registry = registry
	}
}

// WithRepository sets the content repository handed to extractors.
func WithRepository(repo content.Repository) Option {
	return func(e *Engine) {
		e.repo = repo
	}
}

// WithGlobals seeds values visible to every render. Model keys shadow them.
func WithGlobals(globals map[string]any) Option {
	return func(e *Engine) {
		if len(globals) == 0 {
			return
		}
		if e.globals == nil {
			e.globals = make(map[string]any, len(globals))
		}
		for key, value := range globals {
			e.globals[strings.TrimSpace(key)] = value
		}
	}
}

// WithMaxDepth bounds nested renders. Values below one disable the limit.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSpanManager enables render and compile spans.
func WithSpanManager(spans observability.SpanManager) Option {
	return func(e *Engine) {
		if spans != nil {
			e.spans = spans
		}
	}
}

// WithMetrics enables render, compile and cache metrics.
func WithMetrics(metrics observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if metrics != nil {
			e.metrics = metrics
		}
	}
}
