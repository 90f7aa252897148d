package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-bake"
	"github.com/goliatone/go-bake/internal/config"
	"github.com/goliatone/go-bake/internal/logger"
	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/content/sqlstore"
	"github.com/goliatone/go-bake/pkg/observability"
	"github.com/goliatone/go-bake/pkg/render"
	"github.com/goliatone/go-bake/pkg/source"
)

// app holds everything a command needs after configuration is loaded.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	repo      content.Repository
	store     *sqlstore.Store
	providers *observability.Providers
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load(opts.configDir)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.templates != "" {
		cfg.Templates.Folder = opts.templates
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: l}
	if cfg.Telemetry.Enabled {
		a.providers = observability.NewProviders()
	}

	switch cfg.Content.Driver {
	case config.DriverSQLite:
		store, err := sqlstore.Open(ctx, cfg.Content.DSN)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.store = store
		a.repo = store
		l.Debug("content store opened", zap.String("dsn", cfg.Content.DSN))
	default:
		mem := content.NewMemory()
		for _, path := range opts.contentFiles {
			n, err := importFile(path, func(doc content.Document) error { return mem.Put(doc) })
			if err != nil {
				_ = a.Close(ctx)
				return nil, err
			}
			l.Debug("content loaded", zap.String("file", path), zap.Int("documents", n))
		}
		a.repo = mem
	}
	return a, nil
}

// engine builds a render engine from the loaded configuration.
func (a *app) engine() (*render.Engine, error) {
	resolver := source.New(
		source.WithRoot(a.cfg.Templates.Folder),
		source.WithBundled(bake.BundledTemplates()),
		source.WithFolderName(a.cfg.Templates.FolderName),
	)
	options := []bake.Option{
		render.WithResolver(resolver),
		render.WithGlobals(a.cfg.Templates.Globals),
		render.WithMaxDepth(a.cfg.Templates.MaxDepth),
		render.WithLogger(a.log),
	}
	if a.providers != nil {
		options = append(options,
			render.WithSpanManager(a.providers.SpanManager()),
			render.WithMetrics(a.providers.MetricsRecorder(a.log)),
		)
	}
	return bake.NewEngine(a.cfg.Templates.Folder, a.repo, options...)
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.providers != nil {
		errs = append(errs, a.providers.Shutdown(ctx))
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return errors.Join(errs...)
}

func importFile(path string, put func(content.Document) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open content: %w", err)
	}
	defer f.Close()

	docs, err := content.DecodeYAML(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return content.Import(putterFunc(put), docs)
}

type putterFunc func(content.Document) error

func (f putterFunc) Put(doc content.Document) error {
	return f(doc)
}
