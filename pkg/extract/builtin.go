package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/model"
)

// Names of the built-in extractors.
const (
	PublishedPosts   = "published_posts"
	PublishedPages   = "published_pages"
	PublishedContent = "published_content"
	AllContent       = "all_content"
	Tags             = "tags"
	TagPosts         = "tag_posts"
	PublishedDate    = "published_date"
	DB               = "db"
)

// ErrNoRepository is returned by extractors that need a repository when none
// was configured.
var ErrNoRepository = errors.New("extract: content repository is not configured")

// ErrNoCurrentModel is returned by extractors that read the current model
// when invoked outside a render.
var ErrNoCurrentModel = errors.New("extract: no render in progress")

var now = time.Now

// RegisterDefaults registers the built-in extractors on r.
func RegisterDefaults(r *MapRegistry) error {
	builtins := map[string]Func{
		PublishedPosts: func(ctx context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
			if repo == nil {
				return nil, ErrNoRepository
			}
			return repo.PublishedPosts(ctx)
		},
		PublishedPages: func(ctx context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
			if repo == nil {
				return nil, ErrNoRepository
			}
			return repo.PublishedPages(ctx)
		},
		PublishedContent: func(ctx context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
			if repo == nil {
				return nil, ErrNoRepository
			}
			return repo.PublishedContent(ctx, "")
		},
		AllContent: func(ctx context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
			if repo == nil {
				return nil, ErrNoRepository
			}
			return repo.AllContent(ctx, "")
		},
		Tags:          extractTags,
		TagPosts:      extractTagPosts,
		PublishedDate: func(context.Context, content.Repository, string, model.Model) (any, error) { return now(), nil },
		DB: func(_ context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
			if repo == nil {
				return nil, ErrNoRepository
			}
			return repo, nil
		},
	}
	for name, fn := range builtins {
		if err := r.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterTyped registers published_<type>s and all_<type>s for a custom
// document type.
func RegisterTyped(r *MapRegistry, docType string) error {
	if docType == "" {
		return fmt.Errorf("extract: document type is required")
	}
	if err := r.Register("published_"+docType+"s", func(ctx context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
		if repo == nil {
			return nil, ErrNoRepository
		}
		return repo.PublishedContent(ctx, docType)
	}); err != nil {
		return err
	}
	return r.Register("all_"+docType+"s", func(ctx context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
		if repo == nil {
			return nil, ErrNoRepository
		}
		return repo.AllContent(ctx, docType)
	})
}

func extractTags(ctx context.Context, repo content.Repository, _ string, _ model.Model) (any, error) {
	if repo == nil {
		return nil, ErrNoRepository
	}
	tags, err := repo.Tags(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(tags))
	for _, tag := range tags {
		posts, err := repo.PublishedPostsByTag(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("extract: posts tagged %q: %w", tag, err)
		}
		out = append(out, map[string]any{
			"name":         tag,
			"tagged_posts": posts,
		})
	}
	return out, nil
}

func extractTagPosts(ctx context.Context, repo content.Repository, _ string, current model.Model) (any, error) {
	if repo == nil {
		return nil, ErrNoRepository
	}
	if current == nil {
		return nil, ErrNoCurrentModel
	}
	tag := current.String("tag")
	if tag == "" {
		return []content.Document{}, nil
	}
	return repo.PublishedPostsByTag(ctx, tag)
}
