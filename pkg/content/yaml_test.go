package content_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-bake/pkg/content"
)

func TestDecodeYAML(t *testing.T) {
	input := `uri: a.html
type: post
tags: [go]
---
---
uri: b.html
title: B
`
	docs, err := content.DecodeYAML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	want := []content.Document{
		{"uri": "a.html", "type": "post", "tags": []any{"go"}},
		{"uri": "b.html", "title": "B"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeYAML_Invalid(t *testing.T) {
	if _, err := content.DecodeYAML(strings.NewReader("uri: [unclosed")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestImport(t *testing.T) {
	repo := content.NewMemory()
	n, err := content.Import(repo, []content.Document{{"uri": "a.html"}, {"title": "no uri"}, {"uri": "c.html"}})
	if err == nil {
		t.Fatal("expected error for document without uri")
	}
	if n != 1 || repo.Len() != 1 {
		t.Fatalf("imported %d, stored %d; want 1 and 1", n, repo.Len())
	}
}
