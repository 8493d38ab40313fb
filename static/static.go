// Package static embeds the inbox page served at "/".
//
// The page exchanges nothing itself: it expects an access token (from
// POST /api/auth/token) in its URL fragment, loads /api/inbox and follows
// /ws for live updates.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:dist
var frontendFS embed.FS

// Handler serves the embedded files. Unknown paths get index.html.
func Handler() http.Handler {
	dist, err := fs.Sub(frontendFS, "dist")
	if err != nil {
		panic(err) // the embed pattern guarantees dist exists
	}
	files := http.FileServer(http.FS(dist))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[1:]
		if name != "" {
			if _, err := fs.Stat(dist, name); err != nil {
				r2 := r.Clone(r.Context())
				r2.URL.Path = "/"
				files.ServeHTTP(w, r2)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}
