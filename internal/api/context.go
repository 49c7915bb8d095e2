package api

import (
	"context"

	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/workspace"
)

type contextKey string

const (
	sessionContextKey   contextKey = "auth_session"
	workspaceContextKey contextKey = "workspace"
)

// SessionFromContext extracts the authenticated session from context
func SessionFromContext(ctx context.Context) *models.Session {
	sess, ok := ctx.Value(sessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return sess
}

// ContextWithSession adds the authenticated session to context
func ContextWithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// WorkspaceFromContext extracts the request's workspace from context
func WorkspaceFromContext(ctx context.Context) *workspace.Workspace {
	ws, ok := ctx.Value(workspaceContextKey).(*workspace.Workspace)
	if !ok {
		return nil
	}
	return ws
}

// ContextWithWorkspace adds a workspace to context
func ContextWithWorkspace(ctx context.Context, ws *workspace.Workspace) context.Context {
	return context.WithValue(ctx, workspaceContextKey, ws)
}
