package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Memory is a Repository backed by a slice. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// Ensure Memory satisfies the Repository contract.
var _ Repository = (*Memory)(nil)

// NewMemory constructs a repository seeded with docs. Documents without a URI
// are rejected by Put but silently skipped here.
func NewMemory(docs ...Document) *Memory {
	m := &Memory{docs: make(map[string]Document, len(docs))}
	for _, doc := range docs {
		_ = m.Put(doc)
	}
	return m
}

// Put stores doc keyed by its URI, replacing any previous version.
func (m *Memory) Put(doc Document) error {
	uri := strings.TrimSpace(doc.URI())
	if uri == "" {
		return errors.New("content: document uri is required")
	}
	copied := make(Document, len(doc))
	for key, value := range doc {
		copied[key] = value
	}
	m.mu.Lock()
	m.docs[uri] = copied
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) PublishedPosts(ctx context.Context) ([]Document, error) {
	return m.PublishedContent(ctx, TypePost)
}

func (m *Memory) PublishedPages(ctx context.Context) ([]Document, error) {
	return m.PublishedContent(ctx, TypePage)
}

func (m *Memory) PublishedContent(ctx context.Context, docType string) ([]Document, error) {
	return m.filter(ctx, func(d Document) bool {
		return d.Published() && (docType == "" || d.Type() == docType)
	})
}

func (m *Memory) AllContent(ctx context.Context, docType string) ([]Document, error) {
	return m.filter(ctx, func(d Document) bool {
		return docType == "" || d.Type() == docType
	})
}

func (m *Memory) DocumentTypes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	seen := make(map[string]struct{})
	for _, doc := range m.docs {
		if t := doc.Type(); t != "" {
			seen[t] = struct{}{}
		}
	}
	m.mu.RUnlock()
	return sortedKeys(seen), nil
}

func (m *Memory) Tags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	seen := make(map[string]struct{})
	for _, doc := range m.docs {
		if !doc.Published() {
			continue
		}
		for _, tag := range doc.Tags() {
			seen[tag] = struct{}{}
		}
	}
	m.mu.RUnlock()
	return sortedKeys(seen), nil
}

func (m *Memory) PublishedPostsByTag(ctx context.Context, tag string) ([]Document, error) {
	return m.filter(ctx, func(d Document) bool {
		return d.Published() && d.Type() == TypePost && d.HasTag(tag)
	})
}

func (m *Memory) filter(ctx context.Context, keep func(Document) bool) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if keep(doc) {
			out = append(out, doc)
		}
	}
	m.mu.RUnlock()
	SortByDateDesc(out)
	return out, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
