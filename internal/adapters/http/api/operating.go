package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/pumpcurve/internal/adapters/export"
	"github.com/okian/pumpcurve/internal/adapters/messages"
	service "github.com/okian/pumpcurve/internal/app"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"github.com/okian/pumpcurve/pkg/metrics"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
	pdfContentType = "application/pdf"
)

// OperatingDependencies defines the resolution calls used by HTTP handlers.
type OperatingDependencies interface {
	Pump(ctx context.Context, name string) (pump.Spec, error)
	Resolve(ctx context.Context, q operating.Query) (operating.Result, error)
	ResolveBatch(ctx context.Context, queries []operating.Query) ([]service.BatchItem, error)
}

// OperatingHandler resolves operating points.
type OperatingHandler struct {
	deps OperatingDependencies
	resp responder
}

// NewOperatingHandler creates a new operating point handler.
func NewOperatingHandler(deps OperatingDependencies, resp responder) *OperatingHandler {
	return &OperatingHandler{deps: deps, resp: resp}
}

// operatingPointRequest mirrors the OpenAPI schema for POST /operating-point.
type operatingPointRequest struct {
	Pump string   `json:"pump"`
	Flow *float64 `json:"flow"`
	Head *float64 `json:"head,omitempty"`
}

func (q operatingPointRequest) validate() error {
	switch {
	case strings.TrimSpace(q.Pump) == "":
		return errors.New("missing pump")
	case q.Flow == nil:
		return errors.New("missing flow")
	}
	return nil
}

func (q operatingPointRequest) query() operating.Query {
	return operating.Query{Pump: strings.TrimSpace(q.Pump), Flow: *q.Flow, Head: q.Head}
}

type operatingPointResponse struct {
	operating.Result
	Codes    []operating.WarningCode `json:"codes"`
	Messages []string                `json:"messages"`
}

func newOperatingPointResponse(lang messages.Lang, res operating.Result) operatingPointResponse {
	return operatingPointResponse{
		Result:   res,
		Codes:    res.Verdict.Codes(),
		Messages: messages.Verdict(lang, res.Verdict),
	}
}

// HandleResolve handles POST /operating-point requests.
func (h *OperatingHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	q, ok := decodeQuery(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.Resolve(r.Context(), q)
	if err != nil {
		h.resp.fail(w, r, op, q.Pump, err)
		return
	}
	writeJSON(w, http.StatusOK, newOperatingPointResponse(h.resp.langOf(r), res))
}

// HandleReport handles POST /operating-point/report.pdf requests.
func (h *OperatingHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.report"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	q, ok := decodeQuery(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.Resolve(r.Context(), q)
	if err != nil {
		h.resp.fail(w, r, op, q.Pump, err)
		return
	}
	spec, err := h.deps.Pump(r.Context(), q.Pump)
	if err != nil {
		h.resp.fail(w, r, op, q.Pump, err)
		return
	}
	body, err := export.OperatingPointPDF(h.resp.langOf(r), spec, res)
	if err != nil {
		h.resp.fail(w, r, op, q.Pump, err)
		return
	}
	metrics.RecordExport("pdf")
	writeFile(w, pdfContentType, fileName(q.Pump, "pdf"), body)
}

type batchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type batchItemResponse struct {
	ID     string                  `json:"id,omitempty"`
	Line   int                     `json:"line"`
	Result *operatingPointResponse `json:"result,omitempty"`
	Error  *batchError             `json:"error,omitempty"`
}

type batchResponse struct {
	Count  int                 `json:"count"`
	Failed int                 `json:"failed"`
	Items  []batchItemResponse `json:"items"`
}

// HandleBatch handles POST /operating-point/batch requests carrying an XLSX
// workbook in the "file" form field.
func (h *OperatingHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer file.Close()

	rows, err := export.ReadQueriesXLSX(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	lang := h.resp.langOf(r)
	out := batchResponse{Count: len(rows), Items: make([]batchItemResponse, len(rows))}

	// Parsed rows go to the service in one call; index maps them back.
	queries := make([]operating.Query, 0, len(rows))
	index := make([]int, 0, len(rows))
	for i, row := range rows {
		out.Items[i].Line = row.Line
		if row.Err != nil {
			out.Items[i].Error = &batchError{Code: "bad_request", Message: row.Err.Error()}
			continue
		}
		queries = append(queries, row.Query)
		index = append(index, i)
	}

	items, err := h.deps.ResolveBatch(r.Context(), queries)
	if err != nil {
		h.resp.fail(w, r, op, "", err)
		return
	}
	for j, item := range items {
		target := &out.Items[index[j]]
		target.ID = item.ID
		if item.Err != nil {
			target.Error = itemError(lang, item)
			continue
		}
		view := newOperatingPointResponse(lang, *item.Result)
		target.Result = &view
	}
	for _, item := range out.Items {
		if item.Error != nil {
			out.Failed++
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func itemError(lang messages.Lang, item service.BatchItem) *batchError {
	if re, ok := operating.AsRejection(item.Err); ok {
		return &batchError{Code: "invalid_input", Message: messages.Rejection(lang, re.Reason), Reason: string(re.Reason)}
	}
	if errors.Is(item.Err, pump.ErrNotFound) {
		return &batchError{Code: "not_found", Message: messages.NotFound(lang, item.Query.Pump)}
	}
	return &batchError{Code: "internal_error", Message: item.Err.Error()}
}

func decodeQuery(w http.ResponseWriter, r *http.Request, op string) (operating.Query, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req operatingPointRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return operating.Query{}, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return operating.Query{}, false
	}
	return req.query(), true
}
