package common

import (
	"context"

	"github.com/bobmcallan/nestegg/internal/models"
)

type contextKey int

const sessionContextKey contextKey = iota

// WithSession stores the request's wizard session in the context.
func WithSession(ctx context.Context, sess *models.WizardSession) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext retrieves the wizard session from context, or nil if absent.
func SessionFromContext(ctx context.Context) *models.WizardSession {
	sess, _ := ctx.Value(sessionContextKey).(*models.WizardSession)
	return sess
}
