package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ruchi-search/ruchi/internal/domain"
	"github.com/ruchi-search/ruchi/internal/domain/search/mode"
	"github.com/ruchi-search/ruchi/internal/domain/search/request"
	healthuc "github.com/ruchi-search/ruchi/internal/usecase/health"
	searchuc "github.com/ruchi-search/ruchi/internal/usecase/search"
)

// Error codes returned in JSON error bodies.
const (
	CodeBadRequest          = "bad_request"
	CodeInvalidQuery        = "invalid_query"
	CodeIntentProvider      = "intent_provider_error"
	CodeEmbeddingProvider   = "embedding_provider_error"
	CodeIndexUnavailable    = "index_unavailable"
	CodeFusionInconsistency = "fusion_inconsistency"
	CodeInternalError       = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the JSON body for all search endpoints.
// TopK is a pointer so an omitted field (→ default) is distinguishable from
// an explicit 0 (→ rejected).
type SearchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

func (r *SearchRequest) topK() int {
	if r.TopK == nil {
		return request.DefaultTopK
	}
	return *r.TopK
}

// RestaurantItem is one ranked result.
type RestaurantItem struct {
	RestaurantID string  `json:"restaurant_id"`
	Name         string  `json:"name"`
	Cuisines     string  `json:"cuisines,omitempty"`
	Location     string  `json:"location,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	CostForTwo   int     `json:"cost_for_two,omitempty"`
	Score        float64 `json:"score"`
}

// SearchResponse is the ranked-list response body.
type SearchResponse struct {
	Items []RestaurantItem `json:"items"`
	Total int              `json:"total"`
}

// CompareResponse holds both retrieval branches side by side.
type CompareResponse struct {
	Semantic SearchResponse `json:"semantic"`
	Keyword  SearchResponse `json:"keyword"`
}

// HealthResponse is the health report body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search pipeline over HTTP.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrIntentProvider, http.StatusBadGateway, CodeIntentProvider),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable),
		sentinelHandler(domain.ErrFusionInconsistency, http.StatusInternalServerError, CodeFusionInconsistency),
	}
	return s
}

// Routes mounts the API routes onto the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search/semantic", s.searchHandler(mode.Semantic))
	r.Post("/search/keyword", s.searchHandler(mode.Keyword))
	r.Post("/search/hybrid", s.searchHandler(mode.Hybrid))
	r.Post("/search/compare", s.CompareSearch)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// searchHandler handles POST /search/{semantic|keyword|hybrid}.
func (s *Server) searchHandler(m mode.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
			return
		}

		req, err := s.search.NewRequest(body.Query, m, body.topK())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}

		hits, err := s.search.Search(r.Context(), &req)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, hitsToResponse(hits))
	}
}

// CompareSearch handles POST /search/compare.
func (s *Server) CompareSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := s.search.NewRequest(body.Query, mode.Compare, body.topK())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	cmp, err := s.search.Compare(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompareResponse{
		Semantic: hitsToResponse(cmp.Semantic),
		Keyword:  hitsToResponse(cmp.Keyword),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func hitsToResponse(hits []domain.Hit) SearchResponse {
	items := make([]RestaurantItem, len(hits))
	for i, h := range hits {
		items[i] = RestaurantItem{
			RestaurantID: h.RestaurantID,
			Name:         h.Name,
			Cuisines:     h.Cuisines,
			Location:     h.Location,
			Rating:       h.Rating,
			CostForTwo:   h.CostForTwo,
			Score:        h.Score,
		}
	}
	return SearchResponse{Items: items, Total: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrIntentProvider,
		domain.ErrEmbeddingProvider,
		domain.ErrIndexUnavailable,
		domain.ErrFusionInconsistency,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
