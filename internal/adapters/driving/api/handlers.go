package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
	"github.com/custodia-labs/coursemate/internal/logger"
)

// MaxRequestBytes caps the size of a query request body.
const MaxRequestBytes = 1 << 20

// Status values returned by the session endpoint.
const (
	statusSuccess  = "success"
	statusNotFound = "not_found"
)

// Handler holds the HTTP handlers for the query service.
type Handler struct {
	query   driving.QueryService
	metrics *Metrics
}

// NewHandler creates handlers backed by query. metrics may be nil.
func NewHandler(query driving.QueryService, metrics *Metrics) *Handler {
	return &Handler{query: query, metrics: metrics}
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string  `json:"query"`
	SessionID *string `json:"session_id,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatusResponse is the body of GET / and DELETE /api/session/{sessionID}.
type StatusResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

// RootHandler reports that the service is running.
func (h *Handler) RootHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Message: "Course Materials RAG System",
		Status:  "running",
	})
}

// QueryHandler answers a question.
func (h *Handler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusUnprocessableEntity, domain.ErrEmptyQuery.Error())
		return
	}

	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}

	start := time.Now()
	answer, err := h.query.Query(r.Context(), req.Query, sessionID)
	h.metrics.observeQuery(time.Since(start), err)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.Error("query failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// CoursesHandler returns catalog statistics.
func (h *Handler) CoursesHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.CourseAnalytics(r.Context())
	if err != nil {
		logger.Error("course analytics failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stats.CourseTitles == nil {
		stats.CourseTitles = []string{}
	}
	writeJSON(w, http.StatusOK, stats)
}

// ClearSessionHandler forgets a session.
func (h *Handler) ClearSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	err := h.query.ClearSession(r.Context(), sessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, StatusResponse{Status: statusSuccess})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusOK, StatusResponse{Status: statusNotFound})
	default:
		logger.Error("clear session %s failed: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
