// Package bake renders named templates against data models, pulling
// repository-backed values through extractors.
//
// NewEngine wires the default stack: templates resolve from an optional root
// directory and then from the bundled stock templates, the built-in
// extractors serve published content from repo, and pongo2 compiles the
// source.
//
//	engine, _ := bake.NewEngine("site/templates", repo)
//	err := engine.Render(ctx, bake.Model{"site_title": "Notes"}, "index.tpl", os.Stdout)
package bake

import (
	"context"

	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/extract"
	"github.com/goliatone/go-bake/pkg/model"
	"github.com/goliatone/go-bake/pkg/render"
	"github.com/goliatone/go-bake/pkg/source"
)

// Model is the data supplied to a render.
type Model = model.Model

// Engine renders templates.
type Engine = render.Engine

// RenderingError is the failure type returned by renders.
type RenderingError = render.RenderingError

// Option configures the engine built by NewEngine.
type Option = render.Option

// NewResolver returns the default resolver: root first (when set), then the
// bundled templates directly, then the bundled templates under
// DefaultFolderName.
func NewResolver(root string) *source.Resolver {
	return source.New(
		source.WithRoot(root),
		source.WithBundled(BundledTemplates()),
		source.WithFolderName(DefaultFolderName),
	)
}

// NewRegistry returns a registry holding the built-in extractors.
func NewRegistry() (*extract.MapRegistry, error) {
	registry := extract.NewRegistry()
	if err := extract.RegisterDefaults(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewEngine builds an engine over root and repo with the built-in extractors.
// options are applied last and may replace any default.
func NewEngine(root string, repo content.Repository, options ...Option) (*Engine, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	defaults := []Option{
		render.WithResolver(NewResolver(root)),
		render.WithRegistry(registry),
		render.WithRepository(repo),
	}
	return render.New(append(defaults, options...)...), nil
}

// RenderString renders name once with a throwaway engine. Prefer NewEngine
// when rendering repeatedly so compiled templates are reused.
func RenderString(ctx context.Context, root string, repo content.Repository, name string, m Model) (string, error) {
	engine, err := NewEngine(root, repo)
	if err != nil {
		return "", err
	}
	return engine.RenderString(ctx, m, name)
}
