package bake

import (
	"embed"
	"io/fs"
)

// DefaultFolderName is the folder inside the bundled assets holding the
// stock templates.
const DefaultFolderName = "templates"

//go:embed bundled
var bundled embed.FS

// BundledTemplates exposes the stock templates so callers can list, copy or
// layer them under their own template root. Template names are relative to
// DefaultFolderName, e.g. "index.tpl" or "partials/post-summary.tpl".
func BundledTemplates() fs.FS {
	fsys, err := fs.Sub(bundled, "bundled")
	if err != nil {
		panic(err)
	}
	return fsys
}
