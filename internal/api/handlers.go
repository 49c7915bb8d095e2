package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/planner"
	"github.com/terra-clan/skillify/internal/tasks"
)

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Notice  *models.Notice `json:"notice,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, &apiError{Code: code, Message: message})
}

func respondNotice(w http.ResponseWriter, status int, notice models.Notice) {
	writeError(w, status, &apiError{
		Code:    "validation_error",
		Message: notice.Description,
		Notice:  &notice,
	})
}

func writeError(w http.ResponseWriter, status int, e *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: e}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondPlannerError maps flow errors to responses. op names the failed
// operation in logs and messages.
func respondPlannerError(w http.ResponseWriter, err error, op string) {
	var ne *planner.NoticeError
	switch {
	case errors.As(err, &ne):
		respondNotice(w, http.StatusBadRequest, ne.Notice)
	case errors.Is(err, planner.ErrNoProfile):
		respondError(w, http.StatusConflict, "no_profile", "no active profile")
	case errors.Is(err, planner.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "item not found")
	case errors.Is(err, tasks.ErrSuperseded):
		respondError(w, http.StatusConflict, "superseded", "a newer request replaced this one")
	case errors.Is(err, tasks.ErrCanceled), errors.Is(err, tasks.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, "canceled", "the request was canceled")
	default:
		slog.Error("request failed", "op", op, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+op)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for name, check := range s.checks {
		if err := check.Ping(r.Context()); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			respondError(w, http.StatusServiceUnavailable, "not_ready", name+" not ready")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Screen envelope

type screenResponse struct {
	Screen  string         `json:"screen"`
	Path    string         `json:"path"`
	Sidebar []gate.NavItem `json:"sidebar,omitempty"`
	View    any            `json:"view,omitempty"`
}

// respondScreen renders a protected screen with the sidebar of the
// request's workspace
func respondScreen(w http.ResponseWriter, r *http.Request, view any) {
	route := gate.Lookup(r.URL.Path)
	resp := screenResponse{Screen: route.Screen, Path: route.Path, View: view}
	if ws := WorkspaceFromContext(r.Context()); ws != nil {
		resp.Sidebar = gate.Sidebar(ws.Flags(), route.Path)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	slog.Debug("screen not found", "path", r.URL.Path)
	writeError(w, http.StatusNotFound, &apiError{Code: gate.NotFound.Screen, Message: "page not found: " + r.URL.Path})
}
