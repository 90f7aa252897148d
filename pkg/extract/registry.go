package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/model"
)

// ErrNoExtractor reports a name with no registered extractor.
var ErrNoExtractor = errors.New("extract: no extractor registered")

// AdaptFunc post-processes an extracted value before it reaches the template.
type AdaptFunc func(key string, value any) any

// Func computes the value for key. current is nil when called outside a
// render.
type Func func(ctx context.Context, repo content.Repository, key string, current model.Model) (any, error)

// Registry answers which names are served by extractors and runs them.
type Registry interface {
	Contains(name string) bool
	Names() []string
	ExtractAndTransform(ctx context.Context, repo content.Repository, name string, current model.Model, adapt AdaptFunc) (any, error)
}

// MapRegistry stores extractors by name, guarding against duplicates. It is
// safe for concurrent use; registration is expected to finish before renders
// start.
type MapRegistry struct {
	mu         sync.RWMutex
	extractors map[string]Func
}

// Ensure MapRegistry implements Registry.
var _ Registry = (*MapRegistry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *MapRegistry {
	return &MapRegistry{
		extractors: make(map[string]Func),
	}
}

// Register adds an extractor. Duplicate names return an error.
func (r *MapRegistry) Register(name string, fn Func) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("extract: extractor name is required")
	}
	if fn == nil {
		return fmt.Errorf("extract: extractor %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extractors[name]; exists {
		return fmt.Errorf("extract: extractor %q already registered", name)
	}
	r.extractors[name] = fn
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *MapRegistry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Unregister removes an extractor.
func (r *MapRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.extractors, name)
}

// Contains reports whether name is registered.
func (r *MapRegistry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *MapRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractAndTransform runs the extractor for name and passes its result
// through adapt. It returns ErrNoExtractor when name is not registered.
func (r *MapRegistry) ExtractAndTransform(ctx context.Context, repo content.Repository, name string, current model.Model, adapt AdaptFunc) (any, error) {
	r.mu.RLock()
	fn, ok := r.extractors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoExtractor, name)
	}

	value, err := fn(ctx, repo, name, current)
	if err != nil {
		return nil, err
	}
	if adapt != nil {
		value = adapt(name, value)
	}
	return value, nil
}
