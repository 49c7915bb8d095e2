package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/skillify/internal/auth"
	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/workspace"
)

// TokenCookie carries the session token for browser navigation
const TokenCookie = "skillify_token"

// requireSession verifies the bearer token and puts its session in the
// request context
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing_token", "provide Authorization header with Bearer token")
			return
		}

		sess, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrSessionNotFound) {
				slog.Warn("rejected session token", "token", maskToken(token), "remote_addr", r.RemoteAddr)
				respondError(w, http.StatusUnauthorized, "invalid_token", "session is not valid")
				return
			}
			slog.Error("failed to authenticate request", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "authentication error")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}

// requireWorkspace attaches the workspace of the token's session without
// gating on its state
func (s *Server) requireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing_token", "provide Authorization header with Bearer token")
			return
		}

		if s.sessionGone(r, token) {
			respondError(w, http.StatusUnauthorized, "invalid_token", "session is not valid")
			return
		}

		ws, err := s.workspaces.Acquire(token)
		if err != nil {
			s.respondAcquireError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithWorkspace(r.Context(), ws)))
	})
}

// gateMiddleware applies the access gate to protected screens. While the
// initial session check is outstanding it waits up to the configured time,
// then answers pending. Visitors without a profile are redirected to the
// auth screen and nothing of the screen is rendered.
func (s *Server) gateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !gate.IsProtected(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" || s.sessionGone(r, token) {
			redirect(w, gate.PathAuth)
			return
		}

		ws, err := s.workspaces.Acquire(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				redirect(w, gate.PathAuth)
				return
			}
			s.respondAcquireError(w, err)
			return
		}

		state := ws.GateState()
		if state.Loading {
			s.waitReady(r, ws)
			state = ws.GateState()
		}

		decision := gate.Decide(r.URL.Path, state)
		switch decision.Kind {
		case gate.Pending:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"pending"}`))
			return
		case gate.Redirect:
			slog.Debug("gate redirect", "path", r.URL.Path, "location", decision.Location, "session_id", ws.SessionID)
			redirect(w, decision.Location)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithWorkspace(r.Context(), ws)))
	})
}

// sessionGone reports whether token is malformed or its session has ended,
// so no workspace is built for it. Lookup failures are left to the
// workspace's own session check.
func (s *Server) sessionGone(r *http.Request, token string) bool {
	_, err := s.auth.Authenticate(r.Context(), token)
	switch {
	case err == nil:
		return false
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrSessionNotFound):
		slog.Debug("stale session token", "token", maskToken(token), "path", r.URL.Path)
		return true
	default:
		slog.Warn("session lookup failed", "error", err)
		return false
	}
}

func (s *Server) waitReady(r *http.Request, ws *workspace.Workspace) {
	if s.config.GateWait <= 0 {
		return
	}
	timer := time.NewTimer(s.config.GateWait)
	defer timer.Stop()

	select {
	case <-ws.Bridge.Ready():
	case <-timer.C:
	case <-r.Context().Done():
	}
}

func (s *Server) respondAcquireError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "invalid_token", "session is not valid")
	case errors.Is(err, workspace.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, "shutting_down", "server is shutting down")
	default:
		slog.Error("failed to acquire workspace", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to open workspace")
	}
}

// redirect answers 303 with an empty body
func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusSeeOther)
}

// extractToken reads the session token from the Authorization header, the
// token cookie or, for websocket clients, the token query parameter
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		return strings.TrimSpace(h)
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// maskToken returns the first 8 chars of a token for safe logging
func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}
