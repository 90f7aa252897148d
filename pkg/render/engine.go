package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-bake/pkg/cache"
	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/extract"
	"github.com/goliatone/go-bake/pkg/lookup"
	"github.com/goliatone/go-bake/pkg/model"
	"github.com/goliatone/go-bake/pkg/observability"
	"github.com/goliatone/go-bake/pkg/render/template"
	"github.com/goliatone/go-bake/pkg/render/template/pongo"
	"github.com/goliatone/go-bake/pkg/renderctx"
	"github.com/goliatone/go-bake/pkg/source"
)

// Engine renders named templates against models.
type Engine struct {
	resolver template.Source
	compiler template.Compiler
	registry extract.Registry
	repo     content.Repository
	globals  map[string]any
	maxDepth int

	logger  *zap.Logger
	spans   observability.SpanManager
	metrics observability.MetricsRecorder

	cache       *cache.Cache[template.Template]
	interceptor *lookup.Interceptor
	stack       *renderctx.Stack
}

// New constructs an Engine. Without WithResolver templates are looked up in
// an empty resolver, so every render fails with KindSourceNotFound.
func New(options ...Option) *Engine {
	e := &Engine{
		maxDepth: renderctx.DefaultMaxDepth,
		logger:   zap.NewNop(),
		spans:    observability.NoopSpanManager{},
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	if e.resolver == nil {
		e.resolver = source.New()
	}
	if e.compiler == nil {
		e.compiler = pongo.New(e.resolver)
	}
	e.cache = cache.New[template.Template](e.resolver)
	e.interceptor = lookup.NewInterceptor(e.registry, e.repo)
	e.stack = renderctx.NewStack(renderctx.WithMaxDepth(e.maxDepth))
	return e
}

// Render renders template name against m and writes the output to w.
// Carriage returns are stripped from the output. Nothing is written unless
// execution succeeds.
func (e *Engine) Render(ctx context.Context, m model.Model, name string, w io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	depth := renderctx.Depth(ctx) + 1

	ctx, span := e.spans.StartRenderSpan(ctx, name, depth)
	defer func() {
		kind := KindOf(err)
		e.spans.EndSpanWithError(span, err)
		e.metrics.RecordRender(ctx, name, time.Since(start), string(kind))
		if err != nil && depth == 1 {
			e.logger.Warn("render failed",
				zap.String("template", name),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}()

	out, err := e.execute(ctx, m, name)
	if err != nil {
		return err
	}
	if w == nil {
		return newError(name, KindSinkWrite, errors.New("render: nil writer"))
	}
	if _, err := io.WriteString(w, out); err != nil {
		return newError(name, KindSinkWrite, err)
	}
	return nil
}

// RenderString renders template name against m and returns the output.
func (e *Engine) RenderString(ctx context.Context, m model.Model, name string) (string, error) {
	var sb strings.Builder
	if err := e.Render(ctx, m, name, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Invalidate drops the compiled template for name so the next render reads
// fresh source.
func (e *Engine) Invalidate(name string) {
	e.cache.Invalidate(name)
	if inv, ok := e.compiler.(template.Invalidator); ok {
		inv.Invalidate(name)
	}
	e.logger.Debug("template invalidated", zap.String("template", name))
}

// Purge drops every compiled template.
func (e *Engine) Purge() {
	e.cache.Purge()
	if inv, ok := e.compiler.(template.Invalidator); ok {
		inv.Invalidate()
	}
	e.logger.Debug("template cache purged")
}

// Cached returns the names of compiled templates, sorted.
func (e *Engine) Cached() []string {
	return e.cache.Names()
}

// CacheStats returns compiled-template cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Registry returns the extractor registry, or nil.
func (e *Engine) Registry() extract.Registry {
	return e.registry
}

func (e *Engine) execute(ctx context.Context, m model.Model, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError(name, KindCanceled, err)
	}
	tmpl, err := e.compiled(ctx, name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", newError(name, KindCanceled, err)
	}

	var buf bytes.Buffer
	err = e.stack.WithModel(ctx, m, func(inner context.Context) error {
		scope := e.newScope(inner, m)
		if execErr := tmpl.Execute(scope, &buf); execErr != nil {
			return scope.classify(name, execErr)
		}
		return nil
	})
	if err != nil {
		if re, ok := err.(*RenderingError); ok {
			return "", re
		}
		return "", newError(name, KindExecute, err)
	}
	return strings.ReplaceAll(buf.String(), "\r", ""), nil
}

func (e *Engine) compiled(ctx context.Context, name string) (template.Template, error) {
	tmpl, hit, err := e.cache.GetOrCompileHit(name, func(r io.Reader, name string) (template.Template, error) {
		cctx, span := e.spans.StartCompileSpan(ctx, name)
		start := time.Now()
		tmpl, err := e.compiler.Compile(r, name)
		e.spans.EndSpanWithError(span, err)
		e.metrics.RecordCompile(cctx, name, time.Since(start), err)
		if err == nil {
			e.logger.Debug("template compiled",
				zap.String("template", name),
				zap.Duration("took", time.Since(start)),
			)
		}
		return tmpl, err
	})
	e.metrics.RecordCacheLookup(ctx, name, hit)
	if hit {
		e.logger.Debug("template cache hit", zap.String("template", name))
	}
	if err != nil {
		var compileErr *cache.CompileError
		if errors.As(err, &compileErr) {
			return nil, newError(name, KindCompile, err)
		}
		return nil, newError(name, KindSourceNotFound, err)
	}
	return tmpl, nil
}
