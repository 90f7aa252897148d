package template

import (
	"errors"
	"io"
	"sort"
)

// Scope supplies variables to a single execution.
//
// Names lists every top-level name the execution may reference. Resolve is
// called lazily, at most once per reference, when the template reads a name.
// Funcs holds values bound as-is (helper functions and callable model values)
// that engines must expose without resolving them first. Include renders
// another template as a nested render and returns its output, which engines
// must treat as already escaped.
type Scope interface {
	Names() []string
	Resolve(name string) (any, error)
	Funcs() map[string]any
	Include(name string, data any) (string, error)
}

// ErrNoInclude is returned by scopes that cannot render nested templates.
var ErrNoInclude = errors.New("template: nested renders are not available in this scope")

// Template is a compiled, immutable template. Execute may run concurrently on
// distinct scopes.
type Template interface {
	Name() string
	Execute(scope Scope, w io.Writer) error
}

// Compiler turns raw template source into a Template.
type Compiler interface {
	Compile(r io.Reader, name string) (Template, error)
}

// Invalidator is implemented by compilers that keep their own caches of
// included templates.
type Invalidator interface {
	Invalidate(names ...string)
}

// Source opens raw template source by name.
type Source interface {
	Resolve(name string) (io.ReadCloser, error)
}

// StaticScope is a Scope over a fixed mapping.
type StaticScope map[string]any

func (s StaticScope) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s StaticScope) Resolve(name string) (any, error) {
	return s[name], nil
}

func (s StaticScope) Funcs() map[string]any {
	return nil
}

func (s StaticScope) Include(string, any) (string, error) {
	return "", ErrNoInclude
}
