// Package httpapi exposes the auth engine and job dispatcher over a
// minimal JSON HTTP surface. It is deliberately thin: request decode,
// engine call, error-to-status mapping.
package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"authkit"
	"authkit/jobs"
)

// Server bundles the handlers' dependencies.
type Server struct {
	engine     *authkit.Engine
	dispatcher *jobs.Dispatcher
	log        zerolog.Logger
}

// NewServer returns a Server routing to the given engine and dispatcher.
func NewServer(engine *authkit.Engine, dispatcher *jobs.Dispatcher, log zerolog.Logger) *Server {
	return &Server{engine: engine, dispatcher: dispatcher, log: log}
}

// Router builds the HTTP mux.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /auth/logout-all", s.handleLogoutAll)
	mux.HandleFunc("POST /auth/change-password", s.handleChangePassword)
	mux.HandleFunc("GET /auth/me", s.handleMe)

	mux.HandleFunc("POST /jobs/{queue}", s.handleEnqueue)
	mux.HandleFunc("GET /jobs/{queue}/stats", s.handleQueueStats)
	mux.HandleFunc("GET /jobs/{queue}/{id}", s.handleJobStatus)

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
