package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-bake/pkg/content"
)

const tagSeparator = "\x1f"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	uri TEXT PRIMARY KEY,
	type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	attrs TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS document_tags (
	uri TEXT NOT NULL REFERENCES documents(uri) ON DELETE CASCADE,
	tag TEXT NOT NULL,
	PRIMARY KEY (uri, tag)
);
CREATE INDEX IF NOT EXISTS idx_documents_type_status ON documents(type, status);
CREATE INDEX IF NOT EXISTS idx_document_tags_tag ON document_tags(tag);
`

const selectDocuments = `
SELECT d.uri, d.type, d.status, d.title, d.date, d.body, d.attrs,
	COALESCE((SELECT GROUP_CONCAT(t.tag, char(31)) FROM document_tags t WHERE t.uri = d.uri), '')
FROM documents d`

const orderDocuments = ` ORDER BY d.date DESC, d.uri ASC`

var wellKnownKeys = map[string]struct{}{
	content.KeyURI:    {},
	content.KeyType:   {},
	content.KeyStatus: {},
	content.KeyTitle:  {},
	content.KeyDate:   {},
	content.KeyTags:   {},
	content.KeyBody:   {},
}

// Store is a SQLite-backed content repository.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Ensure Store satisfies the Repository contract.
var _ content.Repository = (*Store)(nil)

// Open opens (or creates) the database at dsn and applies the schema. Use
// ":memory:" for an ephemeral store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}
	if dsn == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	store := New(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing handle without touching the schema.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables and indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return content.ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Put inserts or replaces doc and its tags.
func (s *Store) Put(ctx context.Context, doc content.Document) (err error) {
	uri := strings.TrimSpace(doc.URI())
	if uri == "" {
		return errors.New("sqlstore: document uri is required")
	}

	attrs := make(map[string]any)
	for key, value := range doc {
		if _, known := wellKnownKeys[key]; known {
			continue
		}
		attrs[key] = value
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("sqlstore: encode attributes for %q: %w", uri, err)
	}

	var date string
	if d := doc.Date(); !d.IsZero() {
		date = d.UTC().Format(time.RFC3339)
	}
	body, _ := doc[content.KeyBody].(string)
	title, _ := doc[content.KeyTitle].(string)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return content.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO documents (uri, type, status, title, date, body, attrs)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET
			type = excluded.type,
			status = excluded.status,
			title = excluded.title,
			date = excluded.date,
			body = excluded.body,
			attrs = excluded.attrs
	`, uri, doc.Type(), strings.ToLower(doc.Status()), title, date, body, string(encoded)); err != nil {
		return fmt.Errorf("sqlstore: upsert %q: %w", uri, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM document_tags WHERE uri = ?`, uri); err != nil {
		return fmt.Errorf("sqlstore: clear tags for %q: %w", uri, err)
	}
	for _, tag := range doc.Tags() {
		if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO document_tags (uri, tag) VALUES (?, ?)`, uri, tag); err != nil {
			return fmt.Errorf("sqlstore: tag %q with %q: %w", uri, tag, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func (s *Store) PublishedPosts(ctx context.Context) ([]content.Document, error) {
	return s.PublishedContent(ctx, content.TypePost)
}

func (s *Store) PublishedPages(ctx context.Context) ([]content.Document, error) {
	return s.PublishedContent(ctx, content.TypePage)
}

func (s *Store) PublishedContent(ctx context.Context, docType string) ([]content.Document, error) {
	if docType == "" {
		return s.query(ctx, selectDocuments+` WHERE d.status = ?`+orderDocuments, content.StatusPublished)
	}
	return s.query(ctx, selectDocuments+` WHERE d.status = ? AND d.type = ?`+orderDocuments, content.StatusPublished, docType)
}

func (s *Store) AllContent(ctx context.Context, docType string) ([]content.Document, error) {
	if docType == "" {
		return s.query(ctx, selectDocuments+orderDocuments)
	}
	return s.query(ctx, selectDocuments+` WHERE d.type = ?`+orderDocuments, docType)
}

func (s *Store) PublishedPostsByTag(ctx context.Context, tag string) ([]content.Document, error) {
	return s.query(ctx, selectDocuments+`
		WHERE d.status = ? AND d.type = ?
		AND EXISTS (SELECT 1 FROM document_tags t WHERE t.uri = d.uri AND t.tag = ?)`+orderDocuments,
		content.StatusPublished, content.TypePost, tag)
}

func (s *Store) DocumentTypes(ctx context.Context) ([]string, error) {
	return s.strings(ctx, `SELECT DISTINCT type FROM documents WHERE type <> '' ORDER BY type`)
}

func (s *Store) Tags(ctx context.Context) ([]string, error) {
	return s.strings(ctx, `
		SELECT DISTINCT t.tag FROM document_tags t
		JOIN documents d ON d.uri = t.uri
		WHERE d.status = ?
		ORDER BY t.tag`, content.StatusPublished)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]content.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, content.ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query documents: %w", err)
	}
	defer rows.Close()

	var out []content.Document
	for rows.Next() {
		var uri, docType, status, title, date, body, attrs, tags string
		if err := rows.Scan(&uri, &docType, &status, &title, &date, &body, &attrs, &tags); err != nil {
			return nil, fmt.Errorf("sqlstore: scan document: %w", err)
		}
		doc, err := decodeDocument(uri, docType, status, title, date, body, attrs, tags)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate documents: %w", err)
	}
	return out, nil
}

func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, content.ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("sqlstore: scan: %w", err)
		}
		out = append(out, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate: %w", err)
	}
	return out, nil
}

func decodeDocument(uri, docType, status, title, date, body, attrs, tags string) (content.Document, error) {
	doc := content.Document{}
	if attrs != "" {
		if err := json.Unmarshal([]byte(attrs), &doc); err != nil {
			return nil, fmt.Errorf("sqlstore: decode attributes for %q: %w", uri, err)
		}
	}
	doc[content.KeyURI] = uri
	doc[content.KeyType] = docType
	doc[content.KeyStatus] = status
	doc[content.KeyTitle] = title
	doc[content.KeyBody] = body
	if date != "" {
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: decode date for %q: %w", uri, err)
		}
		doc[content.KeyDate] = parsed
	}
	if tags != "" {
		doc[content.KeyTags] = strings.Split(tags, tagSeparator)
	} else {
		doc[content.KeyTags] = []string{}
	}
	return doc, nil
}
