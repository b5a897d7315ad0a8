// Package site serves the embedded operating point calculator page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the calculator page and its assets to mux. Only the
// root path and files present in the embedded tree are served; anything
// else is 404 so API routes keep their own handlers.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /{$}", NewRootHandler())
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// RootHandler serves the calculator page.
type RootHandler struct {
	page []byte
}

// NewRootHandler creates a root handler over the embedded index page.
func NewRootHandler() *RootHandler {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		panic("site: embedded index.html missing: " + err.Error())
	}
	return &RootHandler{page: page}
}

// ServeHTTP implements http.Handler.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleRoot(w, r)
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.page)
}
