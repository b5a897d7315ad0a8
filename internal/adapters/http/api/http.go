// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/pumpcurve/internal/adapters/messages"
	service "github.com/okian/pumpcurve/internal/app"
	"github.com/okian/pumpcurve/internal/domain/curve"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"github.com/okian/pumpcurve/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	CatalogDependencies
	OperatingDependencies
	AdminDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	pumpsHandler     *PumpsHandler
	curvesHandler    *CurvesHandler
	operatingHandler *OperatingHandler
	adminHandler     *AdminHandler

	lang    messages.Lang
	limiter *IPRateLimiter
	logger  logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultLang sets the language used when a request names none.
func WithDefaultLang(lang messages.Lang) Option {
	return func(s *Server) {
		if lang != "" {
			s.lang = lang
		}
	}
}

// WithRateLimit limits each client address to rps requests per second with
// the given burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.limiter = NewIPRateLimiter(rps, burst)
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		lang:   messages.English,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := responder{lang: s.lang, logger: s.logger}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.pumpsHandler = NewPumpsHandler(deps, r)
	s.curvesHandler = NewCurvesHandler(deps, r)
	s.operatingHandler = NewOperatingHandler(deps, r)
	s.adminHandler = NewAdminHandler(deps, r)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/pumps", MetricsMiddleware(s.pumpsHandler.HandleListPumps, "pumps"))
	mux.HandleFunc("/curves", MetricsMiddleware(s.curvesHandler.HandleGetCurves, "curves"))
	mux.HandleFunc("/curves.xlsx", MetricsMiddleware(s.curvesHandler.HandleExportCurves, "curves_xlsx"))
	mux.HandleFunc("/operating-point", MetricsMiddleware(s.operatingHandler.HandleResolve, "operating_point"))
	mux.HandleFunc("/operating-point/report.pdf", MetricsMiddleware(s.operatingHandler.HandleReport, "operating_point_pdf"))
	mux.HandleFunc("/operating-point/batch", MetricsMiddleware(s.operatingHandler.HandleBatch, "operating_point_batch"))
	mux.HandleFunc("/admin/cache/clear", MetricsMiddleware(s.adminHandler.HandleClearCache, "admin_cache_clear"))
	mux.HandleFunc("/admin/catalog/reload", MetricsMiddleware(s.adminHandler.HandleReload, "admin_catalog_reload"))

	s.logger.Debug(ctx, "api routes registered")
}

// Handler wraps next with request ids and, when configured, per-client rate
// limiting.
func (s *Server) Handler(next http.Handler) http.Handler {
	if s.limiter != nil {
		next = s.limiter.LimitMiddleware(next)
	}
	return RequestIDMiddleware(next)
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// responder renders domain failures as localized JSON errors.
type responder struct {
	lang   messages.Lang
	logger logger.Logger
}

// langOf picks the response language from ?lang= first, then Accept-Language.
func (rs responder) langOf(r *http.Request) messages.Lang {
	if v := r.URL.Query().Get("lang"); v != "" {
		return messages.ParseLang(v, rs.lang)
	}
	return messages.ParseLang(r.Header.Get("Accept-Language"), rs.lang)
}

// fail classifies err and writes it. Not-found and rejected queries get a
// localized message; internal failures are logged and hidden.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, op, name string, err error) {
	lang := rs.langOf(r)
	resp := errorResponse{RequestID: RequestIDFrom(r.Context())}

	var apiErr *Error
	switch re, rejected := operating.AsRejection(err); {
	case errors.As(err, &apiErr):
		resp.Message = err.Error()
	case rejected:
		err = WrapKind(op, ErrUnprocessable, err)
		resp.Reason = string(re.Reason)
		resp.Message = messages.Rejection(lang, re.Reason)
	case errors.Is(err, pump.ErrNotFound):
		err = WrapKind(op, ErrNotFound, err)
		resp.Message = messages.NotFound(lang, name)
	case errors.Is(err, pump.ErrInvalidSpec):
		err = WrapKind(op, ErrBadRequest, err)
		resp.Message = err.Error()
	default:
		err = Wrap(op, err)
		resp.Message = err.Error()
	}

	status, code := statusOf(err)
	resp.Code = code
	if status >= http.StatusInternalServerError {
		rs.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", resp.RequestID),
			logger.Error(err),
		)
		resp.Message = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

// Compile-time check that the service satisfies the handler contracts.
var _ Dependencies = (*service.Service)(nil)

// pumpView is the catalog listing shape of one pump.
type pumpView struct {
	pump.Spec
	MaxFlow           float64 `json:"max_flow"`
	BEPFlow           float64 `json:"bep_flow"`
	Samples           int     `json:"samples,omitempty"`
	AllowNegativeHead bool    `json:"allow_negative_head"`
}

type curvesResponse struct {
	Spec   pump.Spec `json:"spec"`
	Curves curve.Set `json:"curves"`
}
