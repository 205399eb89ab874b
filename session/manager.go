// Package session owns the refresh-token lifecycle: issuing access/refresh
// pairs, rotating refresh tokens on use, enumerating and revoking sessions,
// and enforcing the per-user session cap.
//
// A session entry stores only the SHA-256 hash of the current refresh token.
// Rotation overwrites the entry's hash and expiry in place, so the session
// id stays stable across rotations and the previous token value is dead the
// moment the rotation persists. Concurrent refresh attempts against one
// token are a race by design: the loser's hash lookup misses and it receives
// ErrInvalidRefresh, which callers may treat as a leakage signal.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recallbox/authcore/internal"
	"github.com/recallbox/authcore/metrics"
	"github.com/recallbox/authcore/store"
	"github.com/recallbox/authcore/token"
)

var (
	// ErrInvalidRefresh covers forged, unknown, and already-rotated refresh
	// tokens. The kinds are deliberately indistinguishable to the caller.
	ErrInvalidRefresh = errors.New("session: invalid refresh token")
	// ErrRefreshExpired is returned when the token's embedded or stored
	// expiry has passed.
	ErrRefreshExpired = errors.New("session: refresh token expired")
)

// TokenPair is an access/refresh pair issued for one session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Info describes an active session without exposing token material.
type Info struct {
	ID         string
	DeviceInfo string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Config tunes the session manager. Zero values take the defaults: 5
// sessions per user, 256-byte device descriptors.
type Config struct {
	MaxPerUser       int
	DeviceInfoMaxLen int
}

const (
	defaultMaxPerUser       = 5
	defaultDeviceInfoMaxLen = 256
)

// Manager composes the credential store and token codec.
type Manager struct {
	store store.Store
	codec *token.Manager
	cfg   Config
	now   func() time.Time
	log   zerolog.Logger
}

func NewManager(st store.Store, codec *token.Manager, cfg Config) *Manager {
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = defaultMaxPerUser
	}
	if cfg.DeviceInfoMaxLen <= 0 {
		cfg.DeviceInfoMaxLen = defaultDeviceInfoMaxLen
	}
	return &Manager{
		store: st,
		codec: codec,
		cfg:   cfg,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
}

// WithClock overrides the manager's clock. Test seam.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithLogger attaches a structured logger.
func (m *Manager) WithLogger(log zerolog.Logger) *Manager {
	m.log = log
	return m
}

// Issue mints a fresh access/refresh pair and appends a new session entry,
// evicting the oldest entry when the user is at capacity.
func (m *Manager) Issue(ctx context.Context, userID, deviceInfo string) (TokenPair, error) {
	device := truncate(deviceInfo, m.cfg.DeviceInfoMaxLen)

	access, err := m.codec.SignAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.codec.SignRefresh(userID, device)
	if err != nil {
		return TokenPair{}, err
	}

	now := m.now()
	entry := store.SessionRecord{
		ID:         uuid.NewString(),
		TokenHash:  internal.HashToken(refresh),
		DeviceInfo: device,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.codec.RefreshTTL()),
	}

	evicted := 0
	_, err = m.store.Update(ctx, userID, func(u *store.UserRecord) error {
		evicted = 0
		u.Sessions = append(u.Sessions, entry)
		if over := len(u.Sessions) - m.cfg.MaxPerUser; over > 0 {
			evicted = over
			u.Sessions = append([]store.SessionRecord(nil), u.Sessions[over:]...)
		}
		return nil
	})
	if err != nil {
		return TokenPair{}, err
	}
	if evicted > 0 {
		metrics.SessionsEvictedTotal.Add(float64(evicted))
		m.log.Debug().Str("user_id", userID).Int("evicted", evicted).
			Msg("session cap reached, oldest session evicted")
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh verifies a presented refresh token, matches it against the user's
// session list by hash, and rotates the matched entry in place. The stored
// expiry is checked independently of the codec's claim expiry; an entry past
// its stored expiry is removed and the attempt fails ErrRefreshExpired.
func (m *Manager) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	claims, err := m.codec.Verify(presented, token.TypeRefresh)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return TokenPair{}, fmt.Errorf("%w: %v", ErrRefreshExpired, err)
		case errors.Is(err, token.ErrWrongType):
			return TokenPair{}, err
		default:
			return TokenPair{}, fmt.Errorf("%w: %v", ErrInvalidRefresh, err)
		}
	}

	providedHash := internal.HashToken(presented)
	now := m.now()

	var (
		pair    TokenPair
		flowErr error
	)
	_, err = m.store.Update(ctx, claims.Subject, func(u *store.UserRecord) error {
		pair, flowErr = TokenPair{}, nil

		idx := findByHash(u.Sessions, providedHash)
		if idx < 0 {
			flowErr = ErrInvalidRefresh
			return nil
		}

		entry := &u.Sessions[idx]
		if !now.Before(entry.ExpiresAt) {
			u.Sessions = append(u.Sessions[:idx:idx], u.Sessions[idx+1:]...)
			flowErr = ErrRefreshExpired
			return nil
		}

		access, err := m.codec.SignAccess(u.ID)
		if err != nil {
			return err
		}
		next, err := m.codec.SignRefresh(u.ID, entry.DeviceInfo)
		if err != nil {
			return err
		}

		entry.TokenHash = internal.HashToken(next)
		entry.ExpiresAt = now.Add(m.codec.RefreshTTL())
		pair = TokenPair{AccessToken: access, RefreshToken: next}
		return nil
	})
	if err != nil {
		return TokenPair{}, err
	}
	if flowErr != nil {
		return TokenPair{}, flowErr
	}
	return pair, nil
}

// Revoke removes the session matching the given refresh token. Revoking a
// token with no matching session is a no-op success, so logout stays
// idempotent.
func (m *Manager) Revoke(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return ErrInvalidRefresh
	}
	hash := internal.HashToken(refreshToken)

	_, err := m.store.Update(ctx, userID, func(u *store.UserRecord) error {
		if idx := findByHash(u.Sessions, hash); idx >= 0 {
			u.Sessions = append(u.Sessions[:idx:idx], u.Sessions[idx+1:]...)
		}
		return nil
	})
	return err
}

// RevokeAll clears every session for the user.
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	_, err := m.store.Update(ctx, userID, func(u *store.UserRecord) error {
		u.Sessions = nil
		return nil
	})
	return err
}

// List enumerates the user's sessions that have not yet passed their stored
// expiry, oldest first.
func (m *Manager) List(ctx context.Context, userID string) ([]Info, error) {
	u, err := m.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	infos := make([]Info, 0, len(u.Sessions))
	for _, s := range u.Sessions {
		if !now.Before(s.ExpiresAt) {
			continue
		}
		infos = append(infos, Info{
			ID:         s.ID,
			DeviceInfo: s.DeviceInfo,
			CreatedAt:  s.CreatedAt,
			ExpiresAt:  s.ExpiresAt,
		})
	}
	return infos, nil
}

// FindByHash reports the index of the session whose stored hash matches, or
// -1. Comparison is constant-time per entry. Exported for the orchestrator's
// change-password pruning.
func FindByHash(sessions []store.SessionRecord, hash string) int {
	return findByHash(sessions, hash)
}

func findByHash(sessions []store.SessionRecord, hash string) int {
	for i := range sessions {
		if internal.HashEquals(sessions[i].TokenHash, hash) {
			return i
		}
	}
	return -1
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
