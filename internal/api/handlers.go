package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/explore"
	"github.com/julianstephens/daylog/internal/journal"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/utils"
)

// maxBodyBytes bounds request bodies for draft and submit.
const maxBodyBytes = 1 << 20

type saveRequest struct {
	Date    string                `json:"date"`
	Answers *[]models.AnswerInput `json:"answers"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	set, err := s.journal.Catalog().Questions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": set.Questions,
		"date":      date,
		"source":    set.Source,
	})
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	e, err := s.journal.GetEntry(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": e.Entry, "answers": e.Answers, "date": date})
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	status, err := s.journal.EntryExists(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSave(w, r, true)
	if !ok {
		return
	}
	e, err := s.journal.SaveDraft(r.Context(), req.Date, *req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": e.Entry, "answers": e.Answers})
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	req, ok := decodeSave(w, r, false)
	if !ok {
		return
	}
	e, err := s.journal.SaveDraft(r.Context(), date, *req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": e.Entry, "answers": e.Answers})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSave(w, r, true)
	if !ok {
		return
	}
	e, err := s.journal.SubmitEntry(r.Context(), req.Date, *req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": e.Entry, "answers": e.Answers})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.journal.Search(r.Context(), journal.SearchParams{
		From: q.Get("from"),
		To:   q.Get("to"),
		Q:    q.Get("q"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.Explore(r.Context(), explore.ParseParams(r.URL.Query()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.journal.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// dateParam reads ?date=, defaulting to today in the server timezone.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		today, err := utils.Today(s.timezone)
		if err != nil {
			writeError(w, err)
			return "", false
		}
		return today, true
	}
	d, err := journal.NormalizeDate(date)
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return d, true
}

func decodeSave(w http.ResponseWriter, r *http.Request, needDate bool) (saveRequest, bool) {
	var req saveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Details: err.Error()})
		return req, false
	}
	if req.Answers == nil || (needDate && req.Date == "") {
		msg := "Invalid request body. Expected { answers }"
		if needDate {
			msg = "Invalid request body. Expected { date, answers }"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid date", Details: err.Error()})
	case apperrors.IsRetryable(err):
		logger.Warn("Storage unavailable", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Storage unavailable", Details: err.Error()})
	default:
		logger.Error("Request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
	}
}
