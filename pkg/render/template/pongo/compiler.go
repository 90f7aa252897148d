package pongo

import (
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-bake/pkg/render/template"
)

// identifier mirrors the context-key syntax pongo2 accepts.
var identifier = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

const setName = "bake"

// Compiler compiles template source into pongo2 templates.
type Compiler struct {
	mu  sync.Mutex
	set *pongo2.TemplateSet
}

var (
	_ template.Compiler    = (*Compiler)(nil)
	_ template.Invalidator = (*Compiler)(nil)
)

// New constructs a Compiler whose includes load through source.
func New(source template.Source) *Compiler {
	registerDefaultFilters()
	return &Compiler{set: pongo2.NewSet(setName, sourceLoader{source: source})}
}

// Compile parses r into a template named name.
func (c *Compiler) Compile(r io.Reader, name string) (template.Template, error) {
	if r == nil {
		return nil, fmt.Errorf("pongo: nil source for %q", name)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pongo: read %q: %w", name, err)
	}

	c.mu.Lock()
	tpl, err := c.set.FromBytes(data)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("pongo: compile %q: %w", name, err)
	}
	return &Template{name: name, tpl: tpl}, nil
}

// Invalidate drops included templates from pongo2's cache. With no names the
// whole cache is cleared.
func (c *Compiler) Invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set.CleanCache(names...)
}

// Template is a compiled pongo2 template.
type Template struct {
	name string
	tpl  *pongo2.Template
}

var _ template.Template = (*Template)(nil)

func (t *Template) Name() string {
	return t.name
}

// IncludeFunc is the name templates call to render a nested template:
// {{ partial("partials/card.tpl", post) }}.
const IncludeFunc = "partial"

// Execute renders the template into w. Each name in scope is bound to a
// function pongo2 invokes on first read; names pongo2 cannot address are
// skipped. Scope names shadow the partial helper.
func (t *Template) Execute(scope template.Scope, w io.Writer) error {
	ctx := pongo2.Context{}
	if scope != nil {
		ctx[IncludeFunc] = include(scope)
		for _, name := range scope.Names() {
			if !identifier.MatchString(name) {
				continue
			}
			ctx[name] = deferred(scope, name)
		}
		for name, fn := range scope.Funcs() {
			if !identifier.MatchString(name) || fn == nil {
				continue
			}
			ctx[name] = fn
		}
	}

	if err := t.tpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("pongo: execute %q: %w", t.name, err)
	}
	return nil
}

func include(scope template.Scope) func(name *pongo2.Value, data ...*pongo2.Value) (*pongo2.Value, error) {
	return func(name *pongo2.Value, data ...*pongo2.Value) (*pongo2.Value, error) {
		var arg any
		if len(data) > 0 && data[0] != nil {
			arg = data[0].Interface()
		}
		out, err := scope.Include(name.String(), arg)
		if err != nil {
			return nil, err
		}
		return pongo2.AsSafeValue(out), nil
	}
}

func deferred(scope template.Scope, name string) func() (any, error) {
	return func() (any, error) {
		return scope.Resolve(name)
	}
}
