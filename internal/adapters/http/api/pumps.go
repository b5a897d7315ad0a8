package api

import (
	"context"
	"net/http"

	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/pump"
)

// CatalogDependencies defines the catalog reads used by HTTP handlers.
type CatalogDependencies interface {
	Pumps(ctx context.Context) ([]pump.Spec, error)
	Pump(ctx context.Context, name string) (pump.Spec, error)
	Curves(ctx context.Context, name string) (pump.Spec, curve.Set, error)
}

// PumpsHandler handles catalog listing requests.
type PumpsHandler struct {
	deps CatalogDependencies
	resp responder
}

// NewPumpsHandler creates a new pumps handler.
func NewPumpsHandler(deps CatalogDependencies, resp responder) *PumpsHandler {
	return &PumpsHandler{deps: deps, resp: resp}
}

// HandleListPumps handles GET /pumps requests.
func (h *PumpsHandler) HandleListPumps(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_pumps"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	specs, err := h.deps.Pumps(r.Context())
	if err != nil {
		h.resp.fail(w, r, op, "", err)
		return
	}
	out := make([]pumpView, len(specs))
	for i, spec := range specs {
		out[i] = pumpView{
			Spec:              spec,
			MaxFlow:           spec.Curves.MaxFlow,
			BEPFlow:           spec.Curves.BEPFlow,
			Samples:           spec.Curves.Samples,
			AllowNegativeHead: spec.Policy.AllowNegativeHead,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
