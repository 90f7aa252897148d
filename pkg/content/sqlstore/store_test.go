package sqlstore_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/content/sqlstore"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *sqlstore.Store) {
	t.Helper()
	docs := []content.Document{
		{"uri": "blog/first.html", "type": "post", "status": "published", "title": "First", "date": "2024-01-01", "tags": []string{"go", "intro"}, "author": "ada"},
		{"uri": "blog/second.html", "type": "post", "status": "Published", "title": "Second", "date": "2024-02-01", "tags": []string{"go"}},
		{"uri": "blog/draft.html", "type": "post", "status": "draft", "title": "Draft", "date": "2024-03-01", "tags": []string{"wip"}},
		{"uri": "about.html", "type": "page", "status": "published", "title": "About", "date": "2023-06-01"},
	}
	for _, doc := range docs {
		require.NoError(t, store.Put(context.Background(), doc))
	}
}

func uris(docs []content.Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.URI())
	}
	return out
}

func TestStore_Queries(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seed(t, store)

	posts, err := store.PublishedPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/second.html", "blog/first.html"}, uris(posts))

	first := posts[1]
	assert.Equal(t, "First", first[content.KeyTitle])
	assert.Equal(t, "ada", first["author"])
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(first.Date()))
	tags := first.Tags()
	sort.Strings(tags)
	assert.Equal(t, []string{"go", "intro"}, tags)

	all, err := store.AllContent(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	pages, err := store.PublishedPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"about.html"}, uris(pages))

	published, err := store.PublishedContent(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/second.html", "blog/first.html", "about.html"}, uris(published))

	allTags, err := store.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "intro"}, allTags)

	tagged, err := store.PublishedPostsByTag(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/first.html"}, uris(tagged))

	types, err := store.DocumentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"page", "post"}, types)
}

func TestStore_PutReplacesTags(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seed(t, store)

	require.NoError(t, store.Put(ctx, content.Document{
		"uri": "blog/first.html", "type": "post", "status": "published", "date": "2024-01-01", "tags": []string{"rewritten"},
	}))

	tagged, err := store.PublishedPostsByTag(ctx, "intro")
	require.NoError(t, err)
	assert.Empty(t, tagged)

	tagged, err = store.PublishedPostsByTag(ctx, "rewritten")
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/first.html"}, uris(tagged))
}

func TestStore_PutRequiresURI(t *testing.T) {
	store := openStore(t)
	assert.Error(t, store.Put(context.Background(), content.Document{"title": "orphan"}))
}

func TestStore_Closed(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Close())

	_, err := store.PublishedPosts(context.Background())
	assert.ErrorIs(t, err, content.ErrClosed)
}

func TestStore_QueryFailureIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk on fire")
	mock.ExpectQuery(`SELECT d.uri, d.type`).WithArgs(content.StatusPublished, content.TypePost).WillReturnError(boom)

	store := sqlstore.New(db)
	_, err = store.PublishedPosts(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PutRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO documents`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM document_tags`).WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	store := sqlstore.New(db)
	err = store.Put(context.Background(), content.Document{"uri": "a.html", "tags": []string{"x"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
