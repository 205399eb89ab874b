package authcore

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/recallbox/authcore/internal"
	"github.com/recallbox/authcore/metrics"
	"github.com/recallbox/authcore/password"
	"github.com/recallbox/authcore/store"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
)

// Signup registers a new identity. The email is case-folded to lowercase
// before the uniqueness check. Unless the configuration marks accounts
// verified by default, the result carries the raw email-verification token
// for the delivery collaborator to send.
func (e *Engine) Signup(ctx context.Context, username, email, plaintext string) (*SignupResult, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	email, err := normalizeEmail(email)
	if err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := e.checkPasswordPolicy(plaintext); err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	now := e.now()
	rec := &store.UserRecord{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: e.cfg.EmailVerification.VerifiedByDefault,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}

	var verificationToken string
	if !rec.EmailVerified {
		raw, tokenHash, err := internal.NewOneTimeToken()
		if err != nil {
			return nil, err
		}
		expires := now.Add(e.cfg.EmailVerification.TTL)
		rec.VerificationTokenHash = tokenHash
		rec.VerificationExpires = &expires
		verificationToken = raw
	}

	if err := e.store.CreateUser(ctx, rec); err != nil {
		if err == store.ErrDuplicate {
			metrics.SignupsTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrUserExists
		}
		return nil, err
	}

	metrics.SignupsTotal.WithLabelValues("success").Inc()
	e.log.Info().Str("user_id", rec.ID).Msg("user registered")

	return &SignupResult{
		User:              sanitizeUser(rec, now),
		VerificationToken: verificationToken,
	}, nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < usernameMinLen || n > usernameMaxLen {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidUsername, usernameMinLen, usernameMaxLen)
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' && r != '-' {
			return fmt.Errorf("%w: letters, digits, '_', '.', '-' only", ErrInvalidUsername)
		}
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// checkPasswordPolicy is the orchestrator-side policy gate; the hasher
// itself accepts anything up to bcrypt's input limit.
func (e *Engine) checkPasswordPolicy(plaintext string) error {
	if len(plaintext) < e.cfg.Password.MinLength {
		return fmt.Errorf("%w: minimum %d characters", ErrWeakPassword, e.cfg.Password.MinLength)
	}
	if len(plaintext) > password.MaxPasswordBytes {
		return fmt.Errorf("%w: maximum %d bytes", ErrWeakPassword, password.MaxPasswordBytes)
	}
	var hasLetter, hasDigit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: needs at least one letter and one digit", ErrWeakPassword)
	}
	return nil
}
