// Package cache memoizes compiled templates by name.
package cache

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Opener opens raw template source by name. *source.Resolver satisfies it.
type Opener interface {
	Resolve(name string) (io.ReadCloser, error)
}

// CompileFunc turns raw source into a compiled template.
type CompileFunc[T any] func(r io.Reader, name string) (T, error)

// CompileError wraps a compiler failure for a named template.
type CompileError struct {
	Name string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("cache: compile %q: %v", e.Name, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Stats reports cache activity since construction.
type Stats struct {
	Hits     int64
	Misses   int64
	Compiles int64
}

// Cache maps template names to compiled templates. The map lock is only held
// for map access; compiles for one name run in a single flight and never block
// lookups of other names. Failures are not remembered.
type Cache[T any] struct {
	opener Opener

	mu      sync.RWMutex
	entries map[string]T

	group singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	compiles atomic.Int64
}

// New constructs a cache that reads source through opener.
func New[T any](opener Opener) *Cache[T] {
	return &Cache[T]{
		opener:  opener,
		entries: make(map[string]T),
	}
}

// Get returns the cached template for name without compiling.
func (c *Cache[T]) Get(name string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpl, ok := c.entries[name]
	return tmpl, ok
}

// GetOrCompile returns the cached template for name, compiling it on a miss.
// Concurrent misses for the same name share one compile and observe the same
// result.
func (c *Cache[T]) GetOrCompile(name string, compile CompileFunc[T]) (T, error) {
	tmpl, _, err := c.GetOrCompileHit(name, compile)
	return tmpl, err
}

// GetOrCompileHit is GetOrCompile that also reports whether the template was
// already cached.
func (c *Cache[T]) GetOrCompileHit(name string, compile CompileFunc[T]) (T, bool, error) {
	if tmpl, ok := c.Get(name); ok {
		c.hits.Add(1)
		return tmpl, true, nil
	}
	c.misses.Add(1)

	result, err, _ := c.group.Do(name, func() (any, error) {
		// A flight that finished between the read above and Do already stored
		// the template.
		if tmpl, ok := c.Get(name); ok {
			return tmpl, nil
		}
		tmpl, err := c.compile(name, compile)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[name] = tmpl
		c.mu.Unlock()
		return tmpl, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	tmpl, _ := result.(T)
	return tmpl, false, nil
}

func (c *Cache[T]) compile(name string, compile CompileFunc[T]) (tmpl T, err error) {
	if c.opener == nil {
		return tmpl, fmt.Errorf("cache: no source opener configured for %q", name)
	}
	if compile == nil {
		return tmpl, fmt.Errorf("cache: no compile function for %q", name)
	}

	rc, err := c.opener.Resolve(name)
	if err != nil {
		return tmpl, fmt.Errorf("cache: resolve %q: %w", name, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cache: close source %q: %w", name, cerr)
		}
	}()

	c.compiles.Add(1)
	tmpl, err = compile(rc, name)
	if err != nil {
		return tmpl, &CompileError{Name: name, Err: err}
	}
	return tmpl, nil
}

// Invalidate drops the cached template for name.
func (c *Cache[T]) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}

// Purge drops every cached template.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]T)
	c.mu.Unlock()
}

// Len returns the number of cached templates.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Names returns the cached template names in sorted order.
func (c *Cache[T]) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Stats returns hit, miss and compile counters.
func (c *Cache[T]) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Compiles: c.compiles.Load(),
	}
}
