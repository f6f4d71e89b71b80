package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fieldops/trackapi/internal/domain"
	healthuc "github.com/fieldops/trackapi/internal/usecase/health"
	recorduc "github.com/fieldops/trackapi/internal/usecase/record"
)

// Server serves the record query API.
type Server struct {
	records       *recorduc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewServer creates an HTTP API server.
func NewServer(records *recorduc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		records: records,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownResource, http.StatusNotFound, ErrorResponseCodeResourceNotFound),
	}
	return s
}

// Routes mounts GET /api/{resource} for every registered resource plus /health and /metrics.
func (s *Server) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		for _, res := range s.records.Resources() {
			name := res.Name()
			r.Get("/"+name, func(w http.ResponseWriter, r *http.Request) {
				s.ListRecords(w, r, name)
			})
			s.logger.Debug("route registered", zap.String("path", "/api/"+name), zap.Strings("filters", res.Fields()))
		}
	})
}

// ListRecords handles GET /api/{resource}.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request, resourceName string) {
	recs, err := s.records.List(r.Context(), resourceName, r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recs)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
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
