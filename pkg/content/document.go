package content

import (
	"sort"
	"strings"
	"time"
)

// Well-known document keys.
const (
	KeyURI    = "uri"
	KeyType   = "type"
	KeyStatus = "status"
	KeyTitle  = "title"
	KeyDate   = "date"
	KeyTags   = "tags"
	KeyBody   = "body"
)

// Document types and statuses used by the default extractors.
const (
	TypePost = "post"
	TypePage = "page"

	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Document is a single content item. Keys beyond the well-known ones are kept
// and exposed to templates as-is.
type Document map[string]any

// URI returns the document identifier.
func (d Document) URI() string {
	return d.str(KeyURI)
}

// Type returns the document type.
func (d Document) Type() string {
	return d.str(KeyType)
}

// Status returns the publication status.
func (d Document) Status() string {
	return d.str(KeyStatus)
}

// Published reports whether the document is published.
func (d Document) Published() bool {
	return strings.EqualFold(d.Status(), StatusPublished)
}

// Date returns the document date, accepting time.Time or RFC 3339 /
// YYYY-MM-DD strings.
func (d Document) Date() time.Time {
	switch v := d[KeyDate].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// Tags returns the document tags, accepting []string or []any.
func (d Document) Tags() []string {
	switch v := d[KeyTags].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return nil
}

// HasTag reports whether the document carries tag.
func (d Document) HasTag(tag string) bool {
	for _, t := range d.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

func (d Document) str(key string) string {
	s, _ := d[key].(string)
	return s
}

// SortByDateDesc orders documents newest first, then by URI for stability.
func SortByDateDesc(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		di, dj := docs[i].Date(), docs[j].Date()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return docs[i].URI() < docs[j].URI()
	})
}
