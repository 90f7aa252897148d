package render

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/goliatone/go-bake/pkg/lookup"
	"github.com/goliatone/go-bake/pkg/model"
	"github.com/goliatone/go-bake/pkg/render/template"
)

// scope is the per-render view handed to the compiled template. It remembers
// the first resolution or nested-render failure so the pipeline can classify
// the execution error the engine reports.
type scope struct {
	ctx    context.Context
	engine *Engine
	model  model.Model
	chain  lookup.Chain
	names  []string
	funcs  map[string]any

	mu  sync.Mutex
	err error
}

var _ template.Scope = (*scope)(nil)

func (e *Engine) newScope(ctx context.Context, m model.Model) *scope {
	chain := lookup.Chain{m, e.globals}

	seen := make(map[string]struct{})
	var funcs map[string]any
	for _, name := range chain.Names() {
		if !e.interceptor.Handles(name) {
			if value, _ := chain.Lookup(name); isFunc(value) {
				if funcs == nil {
					funcs = make(map[string]any)
				}
				funcs[name] = value
				continue
			}
		}
		seen[name] = struct{}{}
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return &scope{
		ctx:    ctx,
		engine: e,
		model:  m,
		chain:  chain,
		names:  names,
		funcs:  funcs,
	}
}

func (s *scope) Names() []string {
	return s.names
}

func (s *scope) Resolve(name string) (any, error) {
	value, err := s.engine.interceptor.Resolve(s.ctx, name, s.chain)
	if err != nil {
		s.record(err)
		return nil, err
	}
	return value, nil
}

func (s *scope) Funcs() map[string]any {
	return s.funcs
}

// Include renders name as a nested render. A mapping in data becomes the
// nested model; anything else keeps the current model.
func (s *scope) Include(name string, data any) (string, error) {
	if element, ok := data.(lookup.Element); ok {
		data = element.Value
	}
	m := s.model
	if nested, ok := model.From(data); ok {
		m = nested
	}

	out, err := s.engine.RenderString(s.ctx, m, name)
	if err != nil {
		s.record(err)
		return "", err
	}
	return out, nil
}

func (s *scope) record(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *scope) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// classify turns an execution error into a RenderingError for template name.
// Failures raised by extractors or nested renders keep their own cause and
// kind; the engine's message is only used when nothing was recorded.
func (s *scope) classify(name string, execErr error) *RenderingError {
	switch cause := s.failure().(type) {
	case nil:
		return newError(name, KindExecute, execErr)
	case *RenderingError:
		return newError(name, cause.Kind, cause)
	default:
		return newError(name, KindExtractor, cause)
	}
}

func isFunc(value any) bool {
	return value != nil && reflect.ValueOf(value).Kind() == reflect.Func
}
