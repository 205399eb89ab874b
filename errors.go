package authcore

import (
	"errors"

	"github.com/recallbox/authcore/session"
	"github.com/recallbox/authcore/store"
	"github.com/recallbox/authcore/token"
)

// The closed error taxonomy of the auth core. Callers match these with
// errors.Is and map them to responses; anything outside this set is a
// backing-store failure to be treated as a 500-class condition.
//
// Several kinds deliberately collapse distinct causes: InvalidCredentials
// covers both "no such account" and "wrong password", and the one-time token
// errors cover both "wrong token" and "expired token", so no response shape
// leaks account existence or token state.
var (
	// ErrUserExists is returned by signup when the email or username is
	// already registered.
	ErrUserExists = errors.New("authcore: user already exists")
	// ErrInvalidCredentials is returned by signin for unknown emails and
	// password mismatches alike.
	ErrInvalidCredentials = errors.New("authcore: invalid credentials")
	// ErrAccountLocked is returned while the account is under brute-force
	// lockout.
	ErrAccountLocked = errors.New("authcore: account locked")
	// ErrInvalidPassword is returned by change-password when the old
	// password does not verify.
	ErrInvalidPassword = errors.New("authcore: invalid password")
	// ErrInvalidResetToken covers unknown, already-used, and expired
	// password-reset tokens.
	ErrInvalidResetToken = errors.New("authcore: invalid password reset token")
	// ErrInvalidVerificationToken covers unknown, already-used, and expired
	// email-verification tokens.
	ErrInvalidVerificationToken = errors.New("authcore: invalid email verification token")
	// ErrWeakPassword is returned when a new password violates the length
	// or charset policy.
	ErrWeakPassword = errors.New("authcore: password does not meet policy")
	// ErrInvalidUsername is returned by signup for usernames outside the
	// 3-30 character policy.
	ErrInvalidUsername = errors.New("authcore: invalid username")
	// ErrInvalidEmail is returned by signup for unparseable addresses.
	ErrInvalidEmail = errors.New("authcore: invalid email address")

	// ErrRefreshTokenExpired is surfaced when a refresh token's embedded or
	// stored expiry has passed.
	ErrRefreshTokenExpired = session.ErrRefreshExpired
	// ErrInvalidRefreshToken covers forged, unknown, and already-rotated
	// refresh tokens.
	ErrInvalidRefreshToken = session.ErrInvalidRefresh
	// ErrInvalidTokenType is returned when a token of the wrong kind is
	// presented where a specific kind is required.
	ErrInvalidTokenType = token.ErrWrongType
	// ErrUserNotFound is returned when a token's subject no longer resolves
	// to a user record.
	ErrUserNotFound = store.ErrNotFound
)
