package content

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML reads a stream of YAML documents, one content document each.
// Empty documents are skipped.
func DecodeYAML(r io.Reader) ([]Document, error) {
	decoder := yaml.NewDecoder(r)
	var docs []Document
	for i := 0; ; i++ {
		var doc map[string]any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, fmt.Errorf("content: decode document %d: %w", i, err)
		}
		if len(doc) == 0 {
			continue
		}
		docs = append(docs, Document(doc))
	}
}

// Putter stores documents.
type Putter interface {
	Put(doc Document) error
}

// Import stores every document in docs, stopping at the first failure.
func Import(dst Putter, docs []Document) (int, error) {
	for i, doc := range docs {
		if err := dst.Put(doc); err != nil {
			return i, fmt.Errorf("content: import %q: %w", doc.URI(), err)
		}
	}
	return len(docs), nil
}
