// Package site serves the embedded browser front end.
package site

import (
	"context"
	"net/http"
)

// Register attaches the front end to mux. API routes registered on the same
// mux take precedence because their patterns are more specific.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", NewRootHandler())
}

// RootHandler serves static assets and falls back to index.html so client
// side routes resolve on reload.
type RootHandler struct {
	files http.Handler
	fs    http.FileSystem
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	fsys := FS()
	return &RootHandler{files: http.FileServer(fsys), fs: fsys}
}

// ServeHTTP implements http.Handler.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		f, err := h.fs.Open(r.URL.Path)
		if err != nil {
			r = r.Clone(r.Context())
			r.URL.Path = "/"
		} else {
			_ = f.Close()
		}
	}
	h.files.ServeHTTP(w, r)
}
