package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/logger"
)

// ErrorResponseCode is a machine-readable error identifier.
type ErrorResponseCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
	ErrorResponseCodeResourceNotFound ErrorResponseCode = "resource_not_found"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
	ErrorResponseCodeMethodNotAllowed ErrorResponseCode = "method_not_allowed"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// handleDomainError maps err to a response. Storage faults and anything unrecognised
// become a generic 500 without internals.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			logger.FromContext(r.Context()).Warn("request rejected", zap.Error(err))
			return
		}
	}

	logger.FromContext(r.Context()).Error("request failed",
		zap.Bool("storage_unavailable", errors.Is(err, domain.ErrStorageUnavailable)),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
