package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/pumpcurve/internal/adapters/export"
	"github.com/okian/pumpcurve/pkg/metrics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CurvesHandler serves the sampled curves of a pump.
type CurvesHandler struct {
	deps CatalogDependencies
	resp responder
}

// NewCurvesHandler creates a new curves handler.
func NewCurvesHandler(deps CatalogDependencies, resp responder) *CurvesHandler {
	return &CurvesHandler{deps: deps, resp: resp}
}

// HandleGetCurves handles GET /curves?pump={name} requests.
func (h *CurvesHandler) HandleGetCurves(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_curves"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name, ok := pumpParam(w, r, op)
	if !ok {
		return
	}
	spec, set, err := h.deps.Curves(r.Context(), name)
	if err != nil {
		h.resp.fail(w, r, op, name, err)
		return
	}
	writeJSON(w, http.StatusOK, curvesResponse{Spec: spec, Curves: set})
}

// HandleExportCurves handles GET /curves.xlsx?pump={name} requests.
func (h *CurvesHandler) HandleExportCurves(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_curves"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name, ok := pumpParam(w, r, op)
	if !ok {
		return
	}
	spec, set, err := h.deps.Curves(r.Context(), name)
	if err != nil {
		h.resp.fail(w, r, op, name, err)
		return
	}
	body, err := export.CurvesXLSX(spec, set)
	if err != nil {
		h.resp.fail(w, r, op, name, err)
		return
	}
	metrics.RecordExport("xlsx")
	writeFile(w, xlsxContentType, fileName(name, "xlsx"), body)
}

func pumpParam(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	name := strings.TrimSpace(r.URL.Query().Get("pump"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing pump")))
		return "", false
	}
	return name, true
}

// fileName turns a pump name into a safe attachment name.
func fileName(name, ext string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '.':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String() + "." + ext
}
