// Package store defines the credential store contract and ships two
// implementations: an in-memory store for tests and small deployments, and a
// Redis-backed store for production use.
//
// The store is the single point of serialization in the auth core. Update is
// the only mutation primitive; it runs the caller's function against the same
// fetch that will be written back, so precondition checks (lock status,
// session hash matches) can never act on a stale read.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no user matches the given key.
	ErrNotFound = errors.New("store: user not found")
	// ErrDuplicate is returned by CreateUser when the email or username is
	// already registered.
	ErrDuplicate = errors.New("store: email or username already registered")
	// ErrUnavailable wraps backend transport failures.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Store persists user records. Emails and usernames are stored as given;
// callers are expected to case-fold emails before calling in.
//
// Implementations must provide read-then-write atomicity per record: Update
// may retry fn, and each invocation sees a fresh fetch.
type Store interface {
	// CreateUser persists a new record, failing with ErrDuplicate when the
	// email or username is taken.
	CreateUser(ctx context.Context, user *UserRecord) error

	UserByID(ctx context.Context, id string) (*UserRecord, error)
	UserByEmail(ctx context.Context, email string) (*UserRecord, error)

	// UserByResetTokenHash resolves the user holding the given password-reset
	// token hash. Expiry is the caller's concern; the store only matches.
	UserByResetTokenHash(ctx context.Context, hash string) (*UserRecord, error)
	// UserByVerificationTokenHash is the email-verification counterpart.
	UserByVerificationTokenHash(ctx context.Context, hash string) (*UserRecord, error)

	// Update applies fn to the current record and persists the result
	// atomically. A non-nil error from fn aborts the write and is returned
	// unchanged. fn may be invoked more than once under contention and must
	// be idempotent.
	Update(ctx context.Context, id string, fn func(*UserRecord) error) (*UserRecord, error)
}
