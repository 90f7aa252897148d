package render

import (
	"errors"
	"fmt"
)

// Kind classifies a render failure by the pipeline stage that raised it.
type Kind string

const (
	KindSourceNotFound Kind = "source_not_found"
	KindCompile        Kind = "compile"
	KindExtractor      Kind = "extractor"
	KindExecute        Kind = "execute"
	KindSinkWrite      Kind = "sink_write"
	KindCanceled       Kind = "canceled"
)

// RenderingError is the single failure type returned by Engine.Render. Err is
// the underlying cause; errors.Is and errors.As reach it.
type RenderingError struct {
	Template string
	Kind     Kind
	Err      error
}

func (e *RenderingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("render: %s %q", e.Kind, e.Template)
	}
	return fmt.Sprintf("render: %s %q: %v", e.Kind, e.Template, e.Err)
}

func (e *RenderingError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries a RenderingError of the given kind. For
// nested renders the outermost error decides.
func IsKind(err error, kind Kind) bool {
	var re *RenderingError
	return errors.As(err, &re) && re.Kind == kind
}

// KindOf returns the kind of the outermost RenderingError in err, or "" when
// err carries none.
func KindOf(err error) Kind {
	var re *RenderingError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

func newError(name string, kind Kind, err error) *RenderingError {
	return &RenderingError{Template: name, Kind: kind, Err: err}
}
