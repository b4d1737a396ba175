package web

import (
	"embed"
	"io/fs"
)

// IndexFile is the page served at the site root.
const IndexFile = "index.html"

// staticFS embeds the calendar page and its assets (web/dist) into the Go binary.
//
//go:embed all:dist
var staticFS embed.FS

// FS returns the embedded filesystem rooted at dist, so index.html sits at the top
// level and assets under static/.
func FS() (fs.FS, error) {
	return fs.Sub(staticFS, "dist")
}

// Assets returns the static/ subtree served under /static.
func Assets() (fs.FS, error) {
	return fs.Sub(staticFS, "dist/static")
}
