package authcore

import (
	"time"

	"github.com/recallbox/authcore/session"
	"github.com/recallbox/authcore/store"
)

// TokenPair is an access/refresh pair issued for one session.
type TokenPair = session.TokenPair

// SessionInfo describes an active session without exposing token material.
type SessionInfo = session.Info

// User is the sanitized view of a user record returned to callers. Password
// and one-time token hashes are stripped; sessions carry no token material.
type User struct {
	ID            string
	Username      string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Sessions      []SessionInfo
}

// SignupResult is returned by [Engine.Signup]. VerificationToken is the raw
// email-verification token when verification is required, empty otherwise;
// the caller is responsible for delivery.
type SignupResult struct {
	User              User
	VerificationToken string
}

func sanitizeUser(u *store.UserRecord, now time.Time) User {
	out := User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	for _, s := range u.Sessions {
		if !now.Before(s.ExpiresAt) {
			continue
		}
		out.Sessions = append(out.Sessions, SessionInfo{
			ID:         s.ID,
			DeviceInfo: s.DeviceInfo,
			CreatedAt:  s.CreatedAt,
			ExpiresAt:  s.ExpiresAt,
		})
	}
	return out
}
