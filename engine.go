package authcore

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/recallbox/authcore/internal/lockout"
	"github.com/recallbox/authcore/password"
	"github.com/recallbox/authcore/session"
	"github.com/recallbox/authcore/store"
	"github.com/recallbox/authcore/token"
)

// Engine is the auth orchestrator consumed by the HTTP layer. Build one via
// [Builder]; all methods are safe for concurrent use.
type Engine struct {
	cfg      Config
	store    store.Store
	hasher   *password.Hasher
	codec    *token.Manager
	sessions *session.Manager
	guard    lockout.Guard
	log      zerolog.Logger
	now      func() time.Time

	// decoyHash absorbs a verification on the unknown-email signin path.
	decoyHash string
}

// ValidateAccess verifies an access token and returns its subject user id.
// This is the primitive the request-authentication middleware builds on; it
// needs no store lookup. A refresh token presented here fails
// [ErrInvalidTokenType].
func (e *Engine) ValidateAccess(tokenStr string) (string, error) {
	claims, err := e.codec.Verify(tokenStr, token.TypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// CurrentUser returns the sanitized user record: no password hash, no token
// hashes, sessions without token material.
func (e *Engine) CurrentUser(ctx context.Context, userID string) (*User, error) {
	rec, err := e.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u := sanitizeUser(rec, e.now())
	return &u, nil
}

// Sessions enumerates the user's active sessions, oldest first.
func (e *Engine) Sessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	return e.sessions.List(ctx, userID)
}
