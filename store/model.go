package store

import "time"

// UserRecord is the persisted state for one registered identity. It is the
// only external state the auth core depends on: credential hash, lockout
// counters, the bounded list of refresh sessions, and the hashes of any
// outstanding one-time tokens.
//
// Plaintext passwords and raw one-time tokens are never stored; every
// secret-bearing field holds a one-way hash.
type UserRecord struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`

	Sessions []SessionRecord `json:"sessions,omitempty"`

	LoginAttempts int        `json:"login_attempts"`
	LockUntil     *time.Time `json:"lock_until,omitempty"`

	EmailVerified         bool       `json:"email_verified"`
	VerificationTokenHash string     `json:"verification_token_hash,omitempty"`
	VerificationExpires   *time.Time `json:"verification_expires,omitempty"`

	ResetTokenHash string     `json:"reset_token_hash,omitempty"`
	ResetExpires   *time.Time `json:"reset_expires,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRecord is one logged-in device. The list is ordered by insertion;
// capacity eviction drops from the front. Rotation overwrites TokenHash and
// ExpiresAt in place, so ID stays stable for the lifetime of the login.
type SessionRecord struct {
	ID         string    `json:"id"`
	TokenHash  string    `json:"token_hash"`
	DeviceInfo string    `json:"device_info,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Clone returns a deep copy of the record. Store implementations hand out
// clones so callers can never mutate persisted state outside Update.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	cp := *u
	if u.LockUntil != nil {
		t := *u.LockUntil
		cp.LockUntil = &t
	}
	if u.VerificationExpires != nil {
		t := *u.VerificationExpires
		cp.VerificationExpires = &t
	}
	if u.ResetExpires != nil {
		t := *u.ResetExpires
		cp.ResetExpires = &t
	}
	if u.Sessions != nil {
		cp.Sessions = make([]SessionRecord, len(u.Sessions))
		copy(cp.Sessions, u.Sessions)
	}
	return &cp
}
