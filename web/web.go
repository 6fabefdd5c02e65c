// Package web bundles the HTML templates and static assets into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed html/*.html
var htmlFS embed.FS

//go:embed assets
var assetsFS embed.FS

// EmbeddedHTML returns the page templates
func EmbeddedHTML() fs.FS { return htmlFS }

// EmbeddedAssets returns the static files rooted at the assets directory
func EmbeddedAssets() fs.FS {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err) // the directory is embedded above
	}
	return sub
}
