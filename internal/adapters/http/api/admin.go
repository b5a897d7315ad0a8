package api

import (
	"context"
	"net/http"
	"strings"
)

// AdminDependencies defines the cache and catalog maintenance calls.
type AdminDependencies interface {
	Invalidate(ctx context.Context, name string) error
	Reload(ctx context.Context) error
}

// AdminHandler handles cache and catalog maintenance requests.
type AdminHandler struct {
	deps AdminDependencies
	resp responder
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, resp responder) *AdminHandler {
	return &AdminHandler{deps: deps, resp: resp}
}

// HandleClearCache handles POST /admin/cache/clear[?pump={name}] requests.
// Without a pump every cached curve set is dropped.
func (h *AdminHandler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_cache"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("pump"))
	if err := h.deps.Invalidate(r.Context(), name); err != nil {
		h.resp.fail(w, r, op, name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReload handles POST /admin/catalog/reload requests.
func (h *AdminHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload_catalog"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Reload(r.Context()); err != nil {
		// A bad catalog on disk is a server-side fault, not the caller's.
		h.resp.fail(w, r, op, "", Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
