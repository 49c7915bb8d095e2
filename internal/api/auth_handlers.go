package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/skillify/internal/auth"
	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/models"
)

// --- Public handlers ---

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.auth.SignUp(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, auth.ErrAccountExists):
			respondError(w, http.StatusConflict, "account_exists", err.Error())
		default:
			slog.Error("failed to sign up", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to sign up")
		}
		return
	}

	setTokenCookie(w, resp.Token, resp.ExpiresAt)
	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.auth.SignIn(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}
		slog.Error("failed to sign in", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to sign in")
		return
	}

	setTokenCookie(w, resp.Token, resp.ExpiresAt)
	respondJSON(w, http.StatusOK, resp)
}

// --- Session handlers (token required) ---

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SessionFromContext(r.Context()))
}

// handleSignOut ends the session through the workspace's bridge when one
// exists, so its profile is cleared without waiting for the change event
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var err error
	if ws, ok := s.workspaces.Get(sess.ID); ok {
		err = ws.Bridge.SignOut(r.Context())
	} else {
		err = s.auth.SignOut(r.Context(), sess.ID)
	}
	if err != nil {
		slog.Error("failed to sign out", "error", err, "session_id", sess.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to sign out")
		return
	}
	s.workspaces.Remove(sess.ID)

	clearTokenCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "signed out",
		"next":    gate.PathHome,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	resp, err := s.auth.Refresh(r.Context(), sess.ID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid_token", "session is not valid")
			return
		}
		slog.Error("failed to refresh session", "error", err, "session_id", sess.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to refresh session")
		return
	}

	setTokenCookie(w, resp.Token, resp.ExpiresAt)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.auth.UpdateUser(r.Context(), sess.ID, req)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid_token", "session is not valid")
			return
		}
		slog.Error("failed to update user", "error", err, "session_id", sess.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update user")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func setTokenCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
