package authcore

import (
	"context"
	"errors"

	"github.com/recallbox/authcore/internal"
	"github.com/recallbox/authcore/metrics"
	"github.com/recallbox/authcore/store"
)

// RequestEmailVerification issues (or reissues) a one-time verification
// token for the account behind email. Unknown emails and already-verified
// accounts both return ("", nil), the same shape as success, so the response
// reveals nothing about account state.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil
	}

	rec, err := e.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _, _ = internal.NewOneTimeToken()
			metrics.EmailVerificationsTotal.WithLabelValues("request", "success").Inc()
			return "", nil
		}
		return "", err
	}
	if rec.EmailVerified {
		metrics.EmailVerificationsTotal.WithLabelValues("request", "success").Inc()
		return "", nil
	}

	raw, tokenHash, err := internal.NewOneTimeToken()
	if err != nil {
		return "", err
	}
	expires := e.now().Add(e.cfg.EmailVerification.TTL)

	_, err = e.store.Update(ctx, rec.ID, func(u *store.UserRecord) error {
		u.VerificationTokenHash = tokenHash
		u.VerificationExpires = &expires
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.EmailVerificationsTotal.WithLabelValues("request", "success").Inc()
	return raw, nil
}

// ConfirmEmailVerification consumes a verification token and marks the
// account verified. Wrong and expired tokens fail the same
// [ErrInvalidVerificationToken].
func (e *Engine) ConfirmEmailVerification(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		metrics.EmailVerificationsTotal.WithLabelValues("confirm", "failure").Inc()
		return ErrInvalidVerificationToken
	}

	tokenHash := internal.HashToken(rawToken)
	rec, err := e.store.UserByVerificationTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.EmailVerificationsTotal.WithLabelValues("confirm", "failure").Inc()
			return ErrInvalidVerificationToken
		}
		return err
	}

	var flowErr error
	_, err = e.store.Update(ctx, rec.ID, func(u *store.UserRecord) error {
		flowErr = nil
		now := e.now()

		if u.VerificationTokenHash == "" || !internal.HashEquals(u.VerificationTokenHash, tokenHash) {
			flowErr = ErrInvalidVerificationToken
			return nil
		}
		if u.VerificationExpires == nil || !now.Before(*u.VerificationExpires) {
			u.VerificationTokenHash = ""
			u.VerificationExpires = nil
			flowErr = ErrInvalidVerificationToken
			return nil
		}

		u.EmailVerified = true
		u.VerificationTokenHash = ""
		u.VerificationExpires = nil
		return nil
	})
	if err != nil {
		return err
	}
	if flowErr != nil {
		metrics.EmailVerificationsTotal.WithLabelValues("confirm", "failure").Inc()
		return flowErr
	}

	metrics.EmailVerificationsTotal.WithLabelValues("confirm", "success").Inc()
	e.log.Info().Str("user_id", rec.ID).Msg("email verified")
	return nil
}
