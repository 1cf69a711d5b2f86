// Package api provides the HTTP server for habithero.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/service"
)

// Server is the habithero HTTP API server.
type Server struct {
	habits         *service.HabitService
	challenges     *service.ChallengeService
	secret         string
	timeout        time.Duration
	metricsEnabled bool
}

// NewServer creates an API server. Bearer tokens are verified with secret.
func NewServer(habits *service.HabitService, secret string) (*Server, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required to serve the API")
	}
	return &Server{habits: habits, secret: secret, timeout: constants.DefaultRequestTimeout}, nil
}

// EnableChallenges mounts the /api/challenges routes.
func (s *Server) EnableChallenges(cs *service.ChallengeService) { s.challenges = cs }

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetTimeout bounds the handling time of each request.
func (s *Server) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(observeRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": constants.Version,
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/categories", s.handleCategories)
		r.Get("/stats", s.handleStats)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.handleListHabits)
			r.Post("/", s.handleCreateHabit)
			r.Get("/{id}", s.handleGetHabit)
			r.Delete("/{id}", s.handleDeleteHabit)
			r.Post("/{id}/complete", s.handleCompleteHabit)
			r.Get("/{id}/calendar", s.handleCalendar)
		})

		if s.challenges != nil {
			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", s.handleListChallenges)
				r.Post("/evaluate", s.handleEvaluateChallenges)
				r.Delete("/notices", s.handleTakeNotices)
				r.Get("/{id}", s.handleGetChallenge)
				r.Post("/{id}/enroll", s.handleJoinChallenge)
				r.Post("/{id}/habits", s.handleAddMissingHabits)
			})
		}
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
		},
	})
}
