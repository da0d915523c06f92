package session

import (
	"context"

	"echonest/models"
)

// Provider exposes the current authenticated identity to the mutation
// coordinators. It is injected rather than read from package state so
// authorization preconditions stay testable in isolation.
type Provider interface {
	Current(ctx context.Context) (*models.Session, bool)
}

type contextKey struct{}

// NewContext attaches a session to a request context.
func NewContext(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached to ctx, if any.
func FromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*models.Session)
	return s, ok && s != nil
}

// ContextProvider reads the session the auth middleware attached to the
// request context.
type ContextProvider struct{}

func (ContextProvider) Current(ctx context.Context) (*models.Session, bool) {
	return FromContext(ctx)
}

// Static always reports the same session; a nil session means signed out.
// Used by tests and one-off tools.
type Static struct {
	Session *models.Session
}

func (s Static) Current(context.Context) (*models.Session, bool) {
	return s.Session, s.Session != nil
}
