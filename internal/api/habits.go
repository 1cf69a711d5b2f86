package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/service"
	"github.com/julianstephens/habithero/internal/storage"
	"github.com/julianstephens/habithero/internal/streak"
)

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
	case errors.Is(err, storage.ErrEnrollmentNotFound):
		writeError(w, http.StatusNotFound, "not enrolled in this challenge")
	case errors.Is(err, challenge.ErrUnknownChallenge):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, challenge.ErrAlreadyEnrolled):
		writeError(w, http.StatusConflict, "already enrolled in this challenge")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, streak.ErrCompletionAhead):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrNoUser):
		writeError(w, http.StatusUnauthorized, "not signed in")
	default:
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err,
			"request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.habits.Catalog())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.habits.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	views, err := s.habits.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"habits": views,
	})
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h, err := s.habits.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	view, err := s.habits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.habits.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteHabit(w http.ResponseWriter, r *http.Request) {
	res, err := s.habits.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := s.habits.Calendar(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("month"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}
