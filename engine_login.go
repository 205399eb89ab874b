package authcore

import (
	"context"
	"errors"

	"github.com/recallbox/authcore/metrics"
	"github.com/recallbox/authcore/store"
)

// Login authenticates by email and password and issues a token pair for a
// new session. Unknown emails and wrong passwords both fail
// [ErrInvalidCredentials]; a locked account fails [ErrAccountLocked] without
// a password check. The lock check, the password verdict, and the counter
// write all happen against one record fetch.
func (e *Engine) Login(ctx context.Context, email, plaintext, deviceInfo string) (TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	rec, err := e.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn an equivalent-cost verification so this path takes as
			// long as a wrong-password attempt.
			e.hasher.Verify(plaintext, e.decoyHash)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	var (
		authErr error
		locked  bool
		rehash  bool
	)
	_, err = e.store.Update(ctx, rec.ID, func(u *store.UserRecord) error {
		authErr, locked, rehash = nil, false, false
		now := e.now()

		if e.guard.Locked(u, now) {
			authErr = ErrAccountLocked
			return nil
		}

		if !e.hasher.Verify(plaintext, u.PasswordHash) {
			locked = e.guard.RecordFailure(u, now)
			authErr = ErrInvalidCredentials
			return nil
		}

		e.guard.RecordSuccess(u)

		// Transparent cost upgrade: the only moment the plaintext is in
		// hand is a successful verification.
		if e.hasher.NeedsRehash(u.PasswordHash) {
			if newHash, hashErr := e.hasher.Hash(plaintext); hashErr == nil {
				u.PasswordHash = newHash
				rehash = true
			}
		}
		return nil
	})
	if err != nil {
		return TokenPair{}, err
	}

	if authErr != nil {
		switch {
		case errors.Is(authErr, ErrAccountLocked):
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			if locked {
				metrics.LockoutsTotal.Inc()
				e.log.Warn().Str("user_id", rec.ID).Msg("account locked after repeated failures")
			}
		}
		return TokenPair{}, authErr
	}

	if rehash {
		e.log.Info().Str("user_id", rec.ID).Msg("password hash upgraded to current cost")
	}

	pair, err := e.sessions.Issue(ctx, rec.ID, deviceInfo)
	if err != nil {
		return TokenPair{}, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return pair, nil
}
