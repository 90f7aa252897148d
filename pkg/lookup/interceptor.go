package lookup

import (
	"context"
	"errors"

	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/extract"
	"github.com/goliatone/go-bake/pkg/renderctx"
)

// Origin records where a resolved value came from.
type Origin int

const (
	FromDefault Origin = iota
	FromExtractor
)

func (o Origin) String() string {
	if o == FromExtractor {
		return "extractor"
	}
	return "default"
}

// Resolution is the outcome of resolving one variable.
type Resolution struct {
	Origin Origin
	Value  any
}

// Interceptor routes variable resolution through the extractor registry. It
// holds no per-render state and is safe for concurrent use.
type Interceptor struct {
	registry extract.Registry
	repo     content.Repository
}

// NewInterceptor builds an interceptor. A nil registry means every name uses
// default resolution.
func NewInterceptor(registry extract.Registry, repo content.Repository) *Interceptor {
	return &Interceptor{registry: registry, repo: repo}
}

// Registry returns the extractor registry.
func (i *Interceptor) Registry() extract.Registry {
	return i.registry
}

// Handles reports whether name is served by an extractor.
func (i *Interceptor) Handles(name string) bool {
	return i.registry != nil && i.registry.Contains(name)
}

// Resolve returns the normalized value for name.
func (i *Interceptor) Resolve(ctx context.Context, name string, scopes Scopes) (any, error) {
	res, err := i.Lookup(ctx, name, scopes)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Lookup resolves name, reporting whether an extractor or default lookup
// produced the value. Default lookup is not evaluated when an extractor
// serves the name.
func (i *Interceptor) Lookup(ctx context.Context, name string, scopes Scopes) (Resolution, error) {
	fallback := func() any {
		if scopes == nil {
			return nil
		}
		value, _ := scopes.Lookup(name)
		return value
	}

	if i.Handles(name) {
		current, _ := renderctx.Current(ctx)
		value, err := i.registry.ExtractAndTransform(ctx, i.repo, name, current, adapt)
		if err != nil {
			if errors.Is(err, extract.ErrNoExtractor) {
				return Resolution{}, &ConsistencyError{Name: name, Err: err}
			}
			return Resolution{}, &ExtractorError{Name: name, Err: err}
		}
		return Resolution{Origin: FromExtractor, Value: value}, nil
	}

	return Resolution{Origin: FromDefault, Value: Normalize(fallback())}, nil
}

func adapt(_ string, value any) any {
	return Normalize(value)
}
