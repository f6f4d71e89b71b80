package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts the server routes behind the standard middleware stack.
// CORS runs outermost so recovered panics and 404/405 replies keep their CORS headers.
// HEAD requests are served by the matching GET route.
func NewRouter(s *Server, logger *zap.Logger, allowedOrigins []string, extra ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(CORSMiddleware(allowedOrigins))
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(chiMiddleware.GetHead)
	r.Use(extra...)
	s.Routes(r)
	return r
}
