package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built admin bundle. Unknown paths fall back to
// index.html so the client-side router can take over.
type SPAHandler struct {
	staticDir string
	prefix    string
	indexFile string
}

func NewSPAHandler(staticDir, prefix string) *SPAHandler {
	return &SPAHandler{
		staticDir: staticDir,
		prefix:    strings.TrimRight(prefix, "/"),
		indexFile: "index.html",
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.prefix)
	path = strings.TrimPrefix(path, "/")

	if path == "api" || strings.HasPrefix(path, "api/") {
		http.NotFound(w, r)
		return
	}

	filePath := filepath.Join(h.staticDir, filepath.FromSlash(filepath.Clean("/"+path)))

	info, err := os.Stat(filePath)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, filePath)
		return
	}

	indexPath := filepath.Join(h.staticDir, h.indexFile)
	if _, err := os.Stat(indexPath); err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, indexPath)
}

func StaticFileServer(staticDir, prefix string) http.Handler {
	return NewSPAHandler(staticDir, prefix)
}
