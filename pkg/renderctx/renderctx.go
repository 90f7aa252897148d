// Package renderctx tracks the model of the innermost active render.
//
// The current model travels with the context.Context of a render call chain.
// Each render pushes a frame; code running inside that render (extractors,
// nested renders) sees the innermost frame, and the caller's context keeps
// pointing at the enclosing frame once the render returns, whatever the exit
// path. Renders on other goroutines carry their own contexts and never observe
// each other's frames.
package renderctx

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-bake/pkg/model"
)

// DefaultMaxDepth bounds nested renders when no explicit limit is set.
const DefaultMaxDepth = 32

// ErrMaxDepth reports a render nested deeper than the configured limit.
var ErrMaxDepth = errors.New("renderctx: maximum render depth exceeded")

type frameKey struct{}

type frame struct {
	model  model.Model
	parent *frame
	depth  int
}

// Stack pushes model frames with a depth limit.
type Stack struct {
	maxDepth int
}

// Option configures a Stack.
type Option func(*Stack)

// WithMaxDepth overrides the nesting limit. Values below one disable the check.
func WithMaxDepth(depth int) Option {
	return func(s *Stack) {
		s.maxDepth = depth
	}
}

// NewStack constructs a Stack.
func NewStack(options ...Option) *Stack {
	s := &Stack{maxDepth: DefaultMaxDepth}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

var defaultStack = NewStack()

// WithModel runs body with m installed as the current model using the default
// depth limit.
func WithModel(ctx context.Context, m model.Model, body func(context.Context) error) error {
	return defaultStack.WithModel(ctx, m, body)
}

// WithModel installs m as the current model for the duration of body. The
// context handed to body carries the new frame; ctx itself is untouched, so
// the previous model is in effect again as soon as body returns or panics.
func (s *Stack) WithModel(ctx context.Context, m model.Model, body func(context.Context) error) error {
	if body == nil {
		return nil
	}
	inner, err := s.Enter(ctx, m)
	if err != nil {
		return err
	}
	return body(inner)
}

// Enter returns a context with m pushed as the current model.
func (s *Stack) Enter(ctx context.Context, m model.Model) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, _ := ctx.Value(frameKey{}).(*frame)
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	if s.maxDepth > 0 && depth > s.maxDepth {
		return ctx, fmt.Errorf("%w (%d)", ErrMaxDepth, s.maxDepth)
	}
	return context.WithValue(ctx, frameKey{}, &frame{model: m, parent: parent, depth: depth}), nil
}

// Current returns the model of the innermost active render. The boolean is
// false outside any render.
func Current(ctx context.Context) (model.Model, bool) {
	if ctx == nil {
		return nil, false
	}
	f, ok := ctx.Value(frameKey{}).(*frame)
	if !ok || f == nil {
		return nil, false
	}
	return f.model, true
}

// Depth returns how many renders are active in the call chain.
func Depth(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	f, ok := ctx.Value(frameKey{}).(*frame)
	if !ok || f == nil {
		return 0
	}
	return f.depth
}

// Outer returns the model of the enclosing render, if any.
func Outer(ctx context.Context) (model.Model, bool) {
	if ctx == nil {
		return nil, false
	}
	f, ok := ctx.Value(frameKey{}).(*frame)
	if !ok || f == nil || f.parent == nil {
		return nil, false
	}
	return f.parent.model, true
}
