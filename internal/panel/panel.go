package panel

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

//go:embed web/*
var content embed.FS

const indexPage = "index.html"

// Handler serves the now-playing page. Assets come from dir when it names
// an existing directory and from the binary otherwise.
func Handler(dir string) http.Handler {
	assets := source(dir)
	files := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		name := strings.Trim(r.URL.Path, "/")
		if name == "" || !exists(assets, name) {
			http.ServeFileFS(w, r, assets, indexPage)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func source(dir string) fs.FS {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
	}
	web, err := fs.Sub(content, "web")
	if err != nil {
		panic("panel: embedded assets missing: " + err.Error())
	}
	return web
}

// exists reports whether name is a regular file in assets.
func exists(assets fs.FS, name string) bool {
	if !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(assets, name)
	return err == nil && !info.IsDir()
}
