package authcore

import (
	"context"
	"errors"

	"github.com/recallbox/authcore/metrics"
	"github.com/recallbox/authcore/token"
)

// Refresh exchanges a refresh token for a fresh access/refresh pair,
// rotating the session's stored hash in place. The presented token is dead
// afterwards; replaying it fails [ErrInvalidRefreshToken].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	pair, err := e.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshTokenExpired):
			metrics.RefreshesTotal.WithLabelValues("expired").Inc()
		case errors.Is(err, token.ErrWrongType):
			metrics.RefreshesTotal.WithLabelValues("wrong_type").Inc()
		case errors.Is(err, ErrInvalidRefreshToken):
			metrics.RefreshesTotal.WithLabelValues("invalid").Inc()
		}
		return TokenPair{}, err
	}
	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// Logout revokes the single session matching the given refresh token. The
// token is required: logout-of-current-device without token context is not
// expressible here, callers wanting a blanket sign-out use [Engine.LogoutAll].
// Revoking a token with no matching session succeeds, keeping logout
// idempotent.
func (e *Engine) Logout(ctx context.Context, userID, refreshToken string) error {
	return e.sessions.Revoke(ctx, userID, refreshToken)
}

// LogoutAll revokes every session for the user.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	return e.sessions.RevokeAll(ctx, userID)
}
