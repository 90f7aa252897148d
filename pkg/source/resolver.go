package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrNotFound reports that no search location held the requested template.
var ErrNotFound = errors.New("source: template not found")

// ErrInvalidName reports a template name that cannot be resolved safely.
var ErrInvalidName = errors.New("source: invalid template name")

// NotFoundError carries the locations searched for a missing template.
type NotFoundError struct {
	Name     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("source: template %q not found (searched %s)", e.Name, strings.Join(e.Searched, ", "))
}

// Is lets errors.Is match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRoot sets the template root directory on the local filesystem.
func WithRoot(dir string) Option {
	return func(r *Resolver) {
		r.root = strings.TrimSpace(dir)
	}
}

// WithBundled sets the bundled assets searched after the root directory.
func WithBundled(files fs.FS) Option {
	return func(r *Resolver) {
		r.bundled = files
	}
}

// WithFolderName sets the prefix used for the last bundled lookup.
func WithFolderName(name string) Option {
	return func(r *Resolver) {
		r.folderName = strings.Trim(strings.TrimSpace(name), "/")
	}
}

// Resolver opens template source by name. It holds no mutable state and is
// safe for concurrent use.
type Resolver struct {
	root       string
	bundled    fs.FS
	folderName string
}

// New constructs a Resolver. A resolver with no locations configured is valid
// and reports every name as missing.
func New(options ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Root returns the configured root directory.
func (r *Resolver) Root() string {
	return r.root
}

// FolderName returns the configured bundled folder prefix.
func (r *Resolver) FolderName() string {
	return r.folderName
}

type location struct {
	label string
	open  func() (io.ReadCloser, error)
}

// Resolve opens the first matching source for name. The returned stream is
// positioned at the start and must be closed by the caller.
func (r *Resolver) Resolve(name string) (io.ReadCloser, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	locations := r.locations(clean)
	searched := make([]string, 0, len(locations))
	for _, loc := range locations {
		searched = append(searched, loc.label)
		rc, err := loc.open()
		if err == nil {
			return rc, nil
		}
		if isMissing(err) {
			continue
		}
		return nil, fmt.Errorf("source: open %s: %w", loc.label, err)
	}
	return nil, &NotFoundError{Name: name, Searched: searched}
}

// Locations lists the candidate locations for name in search order.
func (r *Resolver) Locations(name string) []string {
	clean, err := cleanName(name)
	if err != nil {
		return nil
	}
	locations := r.locations(clean)
	out := make([]string, 0, len(locations))
	for _, loc := range locations {
		out = append(out, loc.label)
	}
	return out
}

func (r *Resolver) locations(name string) []location {
	var out []location
	if r.root != "" {
		local := filepath.Join(r.root, filepath.FromSlash(name))
		out = append(out, location{
			label: local,
			open:  func() (io.ReadCloser, error) { return openFile(local) },
		})
	}
	if r.bundled != nil {
		out = append(out, location{
			label: "bundled:" + name,
			open:  func() (io.ReadCloser, error) { return openBundled(r.bundled, name) },
		})
		if r.folderName != "" {
			prefixed := path.Join(r.folderName, name)
			out = append(out, location{
				label: "bundled:" + prefixed,
				open:  func() (io.ReadCloser, error) { return openBundled(r.bundled, prefixed) },
			})
		}
	}
	return out
}

func openFile(name string) (io.ReadCloser, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fs.ErrNotExist
	}
	return os.Open(name)
}

func openBundled(files fs.FS, name string) (io.ReadCloser, error) {
	f, err := files.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

func cleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	slashed := filepath.ToSlash(trimmed)
	if path.IsAbs(slashed) || filepath.IsAbs(trimmed) {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidName, name)
	}
	clean := path.Clean(slashed)
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("%w: %q escapes the template root", ErrInvalidName, name)
	}
	return clean, nil
}

// isMissing reports errors meaning "nothing here", including a file standing
// where the name expects a directory.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrInvalid) ||
		errors.Is(err, syscall.ENOTDIR)
}
