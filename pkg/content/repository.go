package content

import (
	"context"
	"errors"
)

// ErrClosed is returned by repositories used after Close.
var ErrClosed = errors.New("content: repository closed")

// Repository is the queryable content source handed to extractors. Results
// are ordered newest first.
type Repository interface {
	PublishedPosts(ctx context.Context) ([]Document, error)
	PublishedPages(ctx context.Context) ([]Document, error)
	// PublishedContent returns published documents of docType, or of every
	// type when docType is empty.
	PublishedContent(ctx context.Context, docType string) ([]Document, error)
	// AllContent returns documents of docType regardless of status, or every
	// document when docType is empty.
	AllContent(ctx context.Context, docType string) ([]Document, error)
	DocumentTypes(ctx context.Context) ([]string, error)
	// Tags returns the distinct tags of published documents, sorted.
	Tags(ctx context.Context) ([]string, error)
	PublishedPostsByTag(ctx context.Context, tag string) ([]Document, error)
}
