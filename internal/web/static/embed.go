// Package static embeds the kiosk and operator pages.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:dist/*
var distFS embed.FS

// GetFileSystem returns an http.FileSystem for the embedded dist directory.
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}

// HasPage reports whether dist contains name.html.
func HasPage(name string) bool {
	_, err := fs.Stat(distFS, "dist/"+name+".html")
	return err == nil
}
