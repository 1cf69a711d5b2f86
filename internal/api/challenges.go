package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	views, err := s.challenges.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": views,
	})
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	view, err := s.challenges.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleJoinChallenge(w http.ResponseWriter, r *http.Request) {
	res, err := s.challenges.Join(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleAddMissingHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.challenges.AddMissing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"habits": habits,
	})
}

func (s *Server) handleEvaluateChallenges(w http.ResponseWriter, r *http.Request) {
	reports, err := s.challenges.Evaluate(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"evaluations": reports,
	})
}

// handleTakeNotices returns the pending life-lost notices and clears them.
func (s *Server) handleTakeNotices(w http.ResponseWriter, r *http.Request) {
	ids, err := s.challenges.LifeLostNotices(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"life_lost": ids,
	})
}
