package build

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// historyFallback serves files from root, falling back to index.html for
// paths that do not resolve to a file. Client-side routers own those paths;
// requests with a file extension still 404 normally.
func historyFallback(root string) http.Handler {
	fileServer := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(r.URL.Path, "/")))
		if fi, err := os.Stat(reqPath); err == nil && !fi.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		if filepath.Ext(r.URL.Path) != "" {
			fileServer.ServeHTTP(w, r)
			return
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
