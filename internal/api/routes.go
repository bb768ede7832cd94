package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"stock-dashboard/internal/logging"
)

const apiPrefix = "/api/v1"

// SetupRoutes configures all API routes. Routes are registered on the root
// router so a known path with the wrong method answers 405.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(handler.requestLogger)

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Dashboard routes
	r.HandleFunc(apiPrefix+"/dashboard", handler.GetDashboard).Methods("GET")
	r.HandleFunc(apiPrefix+"/symbol", handler.SelectSymbol).Methods("PUT")
	r.HandleFunc(apiPrefix+"/question", handler.AskQuestion).Methods("POST")

	return r
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger attaches a request-scoped logger to the context and logs
// each request when it completes.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := h.logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), logger)))

		logger.Debug().
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
