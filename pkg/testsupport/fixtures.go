package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-bake/pkg/content"
	"github.com/goliatone/go-bake/pkg/model"
)

// LoadModel reads a YAML mapping fixture into a Model. Testing helpers fail the
// test on error to keep render tests concise.
func LoadModel(t *testing.T, path string) model.Model {
	t.Helper()

	m, err := LoadModelFromPath(path)
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	return m
}

// LoadModelFromPath returns a Model without requiring testing.T, allowing
// callers to wire fixtures in setup functions.
func LoadModelFromPath(path string) (model.Model, error) {
	if path == "" {
		return nil, errors.New("testsupport: model path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read model: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal model: %w", err)
	}
	return model.Model(out), nil
}

// LoadDocuments reads a multi-document YAML fixture into a memory repository.
func LoadDocuments(t *testing.T, path string) *content.Memory {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read documents: %v", err)
	}
	docs, err := content.DecodeYAML(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode documents: %v", err)
	}
	repo := content.NewMemory()
	if _, err := content.Import(repo, docs); err != nil {
		t.Fatalf("put document: %v", err)
	}
	return repo
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}

// FailingWriter rejects every write with Err.
type FailingWriter struct {
	Err error
}

func (w FailingWriter) Write([]byte) (int, error) {
	if w.Err == nil {
		return 0, errors.New("testsupport: write failed")
	}
	return 0, w.Err
}
