package render_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-bake/pkg/cache"
	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/extract"
	"github.com/goliatone/go-bake/pkg/lookup"
	"github.com/goliatone/go-bake/pkg/model"
	"github.com/goliatone/go-bake/pkg/render"
	"github.com/goliatone/go-bake/pkg/render/template"
	"github.com/goliatone/go-bake/pkg/render/template/pongo"
	"github.com/goliatone/go-bake/pkg/renderctx"
	"github.com/goliatone/go-bake/pkg/source"
	"github.com/goliatone/go-bake/pkg/testsupport"
)

const postsLoop = `{% for p in posts %}{% if p.First %}[{% endif %}{{ p.Value }}{% if p.Last %}]{% endif %}{% endfor %}`

func newEngine(t *testing.T, files fstest.MapFS, options ...render.Option) *render.Engine {
	t.Helper()
	resolver := source.New(source.WithBundled(files))
	return render.New(append([]render.Option{render.WithResolver(resolver)}, options...)...)
}

func tpl(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

// whoRegistry serves "who" with the id of the current render model.
func whoRegistry() *extract.MapRegistry {
	reg := extract.NewRegistry()
	reg.MustRegister("who", func(_ context.Context, _ content.Repository, _ string, current model.Model) (any, error) {
		return current.String("id"), nil
	})
	return reg
}

func TestEngine_HelloWorld(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"hello.tpl": tpl("Hello {{ name }}")})

	ctx := context.Background()
	m := model.Model{"name": "World"}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		if err := engine.Render(ctx, m, "hello.tpl", w); err != nil {
			return "", err
		}
		return engine.RenderString(ctx, m, "hello.tpl")
	})
	if result != "Hello World" {
		t.Fatalf("render mismatch result\nwant: %q\n got: %q", "Hello World", result)
	}
	if written != "Hello World" {
		t.Fatalf("render mismatch writer\nwant: %q\n got: %q", "Hello World", written)
	}
}

func TestEngine_SourceNotFound(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{})

	var out strings.Builder
	err := engine.Render(context.Background(), model.Model{}, "missing.tpl", &out)
	if !render.IsKind(err, render.KindSourceNotFound) {
		t.Fatalf("expected source_not_found, got %v", err)
	}
	if !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound in chain, got %v", err)
	}
	var re *render.RenderingError
	if !errors.As(err, &re) || re.Template != "missing.tpl" {
		t.Fatalf("expected template name on error, got %#v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", out.String())
	}
}

func TestEngine_DecoratedExtractorOutput(t *testing.T) {
	reg := extract.NewRegistry()
	reg.MustRegister("posts", func(context.Context, content.Repository, string, model.Model) (any, error) {
		return []string{"a", "b", "c"}, nil
	})
	engine := newEngine(t, fstest.MapFS{"posts.tpl": tpl(postsLoop)}, render.WithRegistry(reg))

	got, err := engine.RenderString(context.Background(), model.Model{"posts": "ignored"}, "posts.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "[abc]" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_ModelCollectionsAreDecorated(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"posts.tpl": tpl(postsLoop)})

	got, err := engine.RenderString(context.Background(), model.Model{"posts": []int{1, 2}}, "posts.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "[12]" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_StripsCarriageReturns(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"crlf.tpl": tpl("line1\r\nline2 {{ v }}\r\n")})

	got, err := engine.RenderString(context.Background(), model.Model{"v": "x\ry"}, "crlf.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "line1\nline2 xy\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_GlobalsAndModelPrecedence(t *testing.T) {
	engine := newEngine(t,
		fstest.MapFS{"g.tpl": tpl("{{ name }} {{ site }}")},
		render.WithGlobals(map[string]any{"name": "global", "site": "G"}),
	)

	got, err := engine.RenderString(context.Background(), model.Model{"name": "model"}, "g.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "model G" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_ExtractorShadowsModel(t *testing.T) {
	engine := newEngine(t,
		fstest.MapFS{"who.tpl": tpl("{{ who }}")},
		render.WithRegistry(whoRegistry()),
	)

	got, err := engine.RenderString(context.Background(), model.Model{"id": "me", "who": "model value"}, "who.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "me" {
		t.Fatalf("expected extractor value, got %q", got)
	}
}

func TestEngine_CallableModelValues(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"call.tpl": tpl(`{{ shout("hi") }}`)})

	m := model.Model{"shout": func(s string) string { return strings.ToUpper(s) + "!" }}
	got, err := engine.RenderString(context.Background(), m, "call.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "HI!" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_NestedRenderRestoresContext(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{
		"outer.tpl": tpl(`outer:{{ who }}|{{ partial("inner.tpl", child) }}|{{ who }}`),
		"inner.tpl": tpl(`inner:{{ who }}`),
	}, render.WithRegistry(whoRegistry()))

	ctx := context.Background()
	m := model.Model{"id": "outer", "child": map[string]any{"id": "inner"}}
	got, err := engine.RenderString(ctx, m, "outer.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "outer:outer|inner:inner|outer:outer"; got != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
	}
	if _, ok := renderctx.Current(ctx); ok {
		t.Fatalf("expected no current model after render returned")
	}
}

func TestEngine_PartialKeepsCurrentModelWithoutData(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{
		"page.tpl":   tpl(`<h1>{{ title }}</h1>{{ partial("footer.tpl") }}`),
		"footer.tpl": tpl(`<p>{{ title }}</p>`),
	})

	got, err := engine.RenderString(context.Background(), model.Model{"title": "T"}, "page.tpl")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<h1>T</h1><p>T</p>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_CompilesOnceUnderConcurrency(t *testing.T) {
	resolver := source.New(source.WithBundled(fstest.MapFS{"hello.tpl": tpl("Hello {{ name }}")}))
	compiler := &countingCompiler{inner: pongo.New(resolver), delay: 20 * time.Millisecond}
	engine := render.New(render.WithResolver(resolver), render.WithCompiler(compiler))

	const workers = 32
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got, err := engine.RenderString(context.Background(), model.Model{"name": "World"}, "hello.tpl")
			if err == nil && got != "Hello World" {
				err = fmt.Errorf("unexpected output %q", got)
			}
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if n := compiler.count.Load(); n != 1 {
		t.Fatalf("expected exactly one compile, got %d", n)
	}
	if diff := cmp.Diff([]string{"hello.tpl"}, engine.Cached()); diff != "" {
		t.Fatalf("cached names mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ConcurrentRendersAreIsolated(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{
		"who.tpl":   tpl(`{{ who }}:{{ partial("inner.tpl", child) }}:{{ who }}`),
		"inner.tpl": tpl(`{{ who }}`),
	}, render.WithRegistry(whoRegistry()))

	const workers = 64
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("m%d", i)
			m := model.Model{"id": id, "child": map[string]any{"id": id + "-child"}}
			results[i], errs[i] = engine.RenderString(context.Background(), m, "who.tpl")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("render %d: %v", i, errs[i])
		}
		want := fmt.Sprintf("m%d:m%d-child:m%d", i, i, i)
		if results[i] != want {
			t.Fatalf("render %d observed another render's model\nwant: %q\n got: %q", i, want, results[i])
		}
	}
}

func TestEngine_CompileFailureIsNotCached(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.tpl")
	writeFile(t, path, "{% if x %}unterminated")

	engine := render.New(render.WithResolver(source.New(source.WithRoot(root))))

	err := engine.Render(context.Background(), model.Model{}, "page.tpl", io.Discard)
	if !render.IsKind(err, render.KindCompile) {
		t.Fatalf("expected compile failure, got %v", err)
	}
	if len(engine.Cached()) != 0 {
		t.Fatalf("failed compile must not be cached, got %v", engine.Cached())
	}

	writeFile(t, path, "{% if x %}yes{% endif %}")
	got, err := engine.RenderString(context.Background(), model.Model{"x": true}, "page.tpl")
	if err != nil {
		t.Fatalf("render after fix: %v", err)
	}
	if got != "yes" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_InvalidateAndPurge(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.tpl")
	writeFile(t, path, "v1")

	engine := render.New(render.WithResolver(source.New(source.WithRoot(root))))
	render1 := func() string {
		t.Helper()
		got, err := engine.RenderString(context.Background(), nil, "page.tpl")
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		return got
	}

	if got := render1(); got != "v1" {
		t.Fatalf("unexpected output %q", got)
	}
	writeFile(t, path, "v2")
	if got := render1(); got != "v1" {
		t.Fatalf("expected cached template, got %q", got)
	}
	engine.Invalidate("page.tpl")
	if got := render1(); got != "v2" {
		t.Fatalf("expected fresh template after invalidate, got %q", got)
	}

	writeFile(t, path, "v3")
	engine.Purge()
	if got := render1(); got != "v3" {
		t.Fatalf("expected fresh template after purge, got %q", got)
	}
	if stats := engine.CacheStats(); stats.Compiles != 3 {
		t.Fatalf("expected three compiles, got %+v", stats)
	}
}

func TestEngine_CacheStatsCountHits(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"a.tpl": tpl("a")})

	for i := 0; i < 3; i++ {
		if _, err := engine.RenderString(context.Background(), nil, "a.tpl"); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}

	want := cache.Stats{Hits: 2, Misses: 1, Compiles: 1}
	if diff := cmp.Diff(want, engine.CacheStats()); diff != "" {
		t.Fatalf("cache stats mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_SinkWriteFailure(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"hello.tpl": tpl("Hello")})
	sinkErr := errors.New("disk full")

	err := engine.Render(context.Background(), nil, "hello.tpl", testsupport.FailingWriter{Err: sinkErr})
	if !render.IsKind(err, render.KindSinkWrite) || !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink_write wrapping cause, got %v", err)
	}

	err = engine.Render(context.Background(), nil, "hello.tpl", nil)
	if !render.IsKind(err, render.KindSinkWrite) {
		t.Fatalf("expected sink_write for nil writer, got %v", err)
	}
}

func TestEngine_ExtractorFailure(t *testing.T) {
	boom := errors.New("query failed")
	reg := extract.NewRegistry()
	reg.MustRegister("posts", func(context.Context, content.Repository, string, model.Model) (any, error) {
		return nil, boom
	})
	engine := newEngine(t, fstest.MapFS{"posts.tpl": tpl(postsLoop)}, render.WithRegistry(reg))

	var out strings.Builder
	err := engine.Render(context.Background(), nil, "posts.tpl", &out)
	if !render.IsKind(err, render.KindExtractor) {
		t.Fatalf("expected extractor kind, got %v", err)
	}
	var extractorErr *lookup.ExtractorError
	if !errors.As(err, &extractorErr) || extractorErr.Name != "posts" || !errors.Is(err, boom) {
		t.Fatalf("expected ExtractorError wrapping cause, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", out.String())
	}
}

func TestEngine_RegistryInconsistency(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"ghost.tpl": tpl("{{ ghost }}")}, render.WithRegistry(lyingRegistry{}))

	err := engine.Render(context.Background(), model.Model{"ghost": "fallback"}, "ghost.tpl", io.Discard)
	var consistency *lookup.ConsistencyError
	if !errors.As(err, &consistency) || !render.IsKind(err, render.KindExtractor) {
		t.Fatalf("expected consistency error, got %v", err)
	}
}

func TestEngine_NestedFailurePropagates(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{
		"outer.tpl": tpl(`before {{ partial("missing.tpl") }} after`),
	})

	err := engine.Render(context.Background(), nil, "outer.tpl", io.Discard)
	if !render.IsKind(err, render.KindSourceNotFound) {
		t.Fatalf("expected nested source_not_found, got %v", err)
	}
	var outer *render.RenderingError
	if !errors.As(err, &outer) || outer.Template != "outer.tpl" {
		t.Fatalf("expected outer template on outermost error, got %#v", err)
	}
	var inner *render.RenderingError
	if !errors.As(outer.Err, &inner) || inner.Template != "missing.tpl" {
		t.Fatalf("expected nested error in chain, got %#v", outer.Err)
	}
}

func TestEngine_MaxDepth(t *testing.T) {
	engine := newEngine(t,
		fstest.MapFS{"self.tpl": tpl(`x{{ partial("self.tpl") }}`)},
		render.WithMaxDepth(3),
	)

	err := engine.Render(context.Background(), nil, "self.tpl", io.Discard)
	if !errors.Is(err, renderctx.ErrMaxDepth) {
		t.Fatalf("expected ErrMaxDepth, got %v", err)
	}
	if !render.IsKind(err, render.KindExecute) {
		t.Fatalf("expected execute kind, got %v", err)
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"hello.tpl": tpl("Hello")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.Render(ctx, nil, "hello.tpl", io.Discard)
	if !render.IsKind(err, render.KindCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(engine.Cached()) != 0 {
		t.Fatalf("canceled render must not compile")
	}
}

func TestEngine_ExecuteFailure(t *testing.T) {
	engine := newEngine(t, fstest.MapFS{"bad.tpl": tpl(`{{ name(1) }}`)})

	err := engine.Render(context.Background(), model.Model{"name": "not callable"}, "bad.tpl", io.Discard)
	if !render.IsKind(err, render.KindExecute) {
		t.Fatalf("expected execute kind, got %v", err)
	}
}

// countingCompiler counts compiles and slows them down to widen races.
type countingCompiler struct {
	inner template.Compiler
	delay time.Duration
	count atomic.Int32
}

func (c *countingCompiler) Compile(r io.Reader, name string) (template.Template, error) {
	c.count.Add(1)
	time.Sleep(c.delay)
	return c.inner.Compile(r, name)
}

// lyingRegistry claims every name but never has an extractor.
type lyingRegistry struct{}

func (lyingRegistry) Contains(string) bool { return true }
func (lyingRegistry) Names() []string      { return []string{"ghost"} }
func (lyingRegistry) ExtractAndTransform(context.Context, content.Repository, string, model.Model, extract.AdaptFunc) (any, error) {
	return nil, extract.ErrNoExtractor
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
