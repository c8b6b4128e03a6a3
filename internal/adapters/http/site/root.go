// Package site serves the embedded landing page that links the API surfaces.
package site

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register mounts the landing page at / on r.
func Register(r chi.Router) {
	files := http.FileServer(FS())
	r.Get("/", files.ServeHTTP)
	r.Get("/index.html", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/", http.StatusMovedPermanently)
	})
}
