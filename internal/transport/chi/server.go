// Package chi exposes the ranking pipeline over HTTP with a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/domain"
	logpkg "github.com/kailas-cloud/travelscout/internal/logger"
	"github.com/kailas-cloud/travelscout/internal/metrics"
	healthuc "github.com/kailas-cloud/travelscout/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/travelscout/internal/usecase/ranking"
)

// MaxBodyBytes caps the search request body.
const MaxBodyBytes = 64 << 10

// Client-facing messages.
const (
	msgRateLimited  = "Too many requests. Please try again later."
	msgUpstreamBusy = "The AI service is currently busy (quota exceeded). Please wait a moment and try again."
	msgSearchFailed = "Failed to process search request"
)

// Searcher runs the ranking pipeline.
type Searcher interface {
	Search(ctx context.Context, req rankinguc.Request) (domain.SearchResult, error)
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search, health and metrics endpoints.
type Server struct {
	search        Searcher
	health        HealthReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. health can be nil.
func NewServer(search Searcher, health HealthReporter, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	// Order matters: an upstream quota failure also wraps the provider error kinds.
	s.errorHandlers = []errorHandler{
		rateLimitedHandler,
		validationHandler,
		sentinelHandler(domain.ErrUpstreamQuota, http.StatusTooManyRequests, msgUpstreamBusy),
	}
	return s
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/api/search", s.Search)
	r.Post("/api", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	// An undecodable body is still rate limited before it is rejected.
	var req searchRequest
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	malformed := json.NewDecoder(body).Decode(&req) != nil

	res, err := s.search.Search(r.Context(), rankinguc.Request{
		Query:     req.Query,
		Malformed: malformed,
		Client: rankinguc.ClientSignals{
			ForwardedFor: r.Header.Get("X-Forwarded-For"),
			RemoteAddr:   r.RemoteAddr,
			RealIP:       r.Header.Get("X-Real-IP"),
		},
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}})
		return
	}

	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	RetryAfter *int   `json:"retryAfter,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// rateLimitedHandler answers local throttling with 429, retryAfter and a Retry-After header.
func rateLimitedHandler(w http.ResponseWriter, err error) bool {
	var rle *domain.RateLimitedError
	if !errors.As(err, &rle) {
		return false
	}
	secs := rle.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: msgRateLimited, RetryAfter: &secs})
	return true
}

// validationHandler answers client input errors with 400 and the reason.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	if msg == "" {
		msg = domain.ErrValidation.Error()
	}
	writeError(w, http.StatusBadRequest, upperFirst(msg))
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("search failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgSearchFailed, Details: err.Error()})
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
