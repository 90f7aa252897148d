package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-bake/pkg/render/template"
)

// sourceLoader adapts a template.Source to pongo2's TemplateLoader. Names are
// always root-relative; the including template's location is ignored.
type sourceLoader struct {
	source template.Source
}

func (l sourceLoader) Abs(_, name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(name)), "/")
	if name == "" {
		return ""
	}
	return path.Clean(name)
}

func (l sourceLoader) Get(name string) (io.Reader, error) {
	if l.source == nil {
		return nil, errors.New("pongo: no template source configured")
	}
	rc, err := l.source.Resolve(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("pongo: read %q: %w", name, err)
	}
	return bytes.NewReader(data), nil
}
