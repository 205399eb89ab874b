package authcore

import (
	"context"
	"errors"

	"github.com/recallbox/authcore/internal"
	"github.com/recallbox/authcore/metrics"
	"github.com/recallbox/authcore/session"
	"github.com/recallbox/authcore/store"
)

// ChangePassword re-verifies the old password, installs the new hash, and
// prunes sessions: when the caller supplies its current refresh token, only
// that session survives; otherwise every session is cleared.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, currentRefreshToken string) error {
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		return err
	}
	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	var keepHash string
	if currentRefreshToken != "" {
		keepHash = internal.HashToken(currentRefreshToken)
	}

	_, err = e.store.Update(ctx, userID, func(u *store.UserRecord) error {
		if !e.hasher.Verify(oldPassword, u.PasswordHash) {
			return ErrInvalidPassword
		}

		u.PasswordHash = newHash
		if keepHash != "" {
			if idx := session.FindByHash(u.Sessions, keepHash); idx >= 0 {
				u.Sessions = []store.SessionRecord{u.Sessions[idx]}
				return nil
			}
		}
		u.Sessions = nil
		return nil
	})
	if err != nil {
		return err
	}

	e.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

// RequestPasswordReset issues a one-time reset token for the account behind
// email. For unknown emails it returns ("", nil) after generating and
// discarding a token, so neither the return shape nor the timing reveals
// whether an account exists. The raw token is returned for delivery; only
// its hash is stored, with a 1-hour expiry by default.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil
	}

	rec, err := e.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _, _ = internal.NewOneTimeToken()
			metrics.PasswordResetsTotal.WithLabelValues("request", "success").Inc()
			return "", nil
		}
		return "", err
	}

	raw, tokenHash, err := internal.NewOneTimeToken()
	if err != nil {
		return "", err
	}
	expires := e.now().Add(e.cfg.PasswordReset.TTL)

	_, err = e.store.Update(ctx, rec.ID, func(u *store.UserRecord) error {
		u.ResetTokenHash = tokenHash
		u.ResetExpires = &expires
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.PasswordResetsTotal.WithLabelValues("request", "success").Inc()
	e.log.Info().Str("user_id", rec.ID).Msg("password reset requested")
	return raw, nil
}

// ConfirmPasswordReset consumes a reset token and installs the new password.
// Wrong and expired tokens fail the same [ErrInvalidResetToken] so no expiry
// oracle exists. Success clears the reset fields and every refresh session:
// a reset is a global logout.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		return err
	}
	if rawToken == "" {
		metrics.PasswordResetsTotal.WithLabelValues("confirm", "failure").Inc()
		return ErrInvalidResetToken
	}

	tokenHash := internal.HashToken(rawToken)
	rec, err := e.store.UserByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.PasswordResetsTotal.WithLabelValues("confirm", "failure").Inc()
			return ErrInvalidResetToken
		}
		return err
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	var flowErr error
	_, err = e.store.Update(ctx, rec.ID, func(u *store.UserRecord) error {
		flowErr = nil
		now := e.now()

		if u.ResetTokenHash == "" || !internal.HashEquals(u.ResetTokenHash, tokenHash) {
			flowErr = ErrInvalidResetToken
			return nil
		}
		if u.ResetExpires == nil || !now.Before(*u.ResetExpires) {
			// Expired: reap the stale token fields while we hold the record.
			u.ResetTokenHash = ""
			u.ResetExpires = nil
			flowErr = ErrInvalidResetToken
			return nil
		}

		u.PasswordHash = newHash
		u.ResetTokenHash = ""
		u.ResetExpires = nil
		u.Sessions = nil
		return nil
	})
	if err != nil {
		return err
	}
	if flowErr != nil {
		metrics.PasswordResetsTotal.WithLabelValues("confirm", "failure").Inc()
		return flowErr
	}

	metrics.PasswordResetsTotal.WithLabelValues("confirm", "success").Inc()
	e.log.Info().Str("user_id", rec.ID).Msg("password reset completed, all sessions revoked")
	return nil
}
