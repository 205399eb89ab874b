// Package token signs and verifies the compact bearer tokens used by the
// auth core: short-lived access tokens and long-lived refresh tokens. Both
// are HS256 JWTs signed with one process-wide secret; rotating the secret
// invalidates every outstanding token.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type tags a token as access or refresh. Verification enforces the tag so a
// refresh token can never authenticate an API call and an access token can
// never be exchanged for a new pair.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

var (
	// ErrExpired is returned when the token's expiry has passed.
	ErrExpired = errors.New("token: expired")
	// ErrMalformed covers tampered tokens, bad signatures, and anything not
	// produced by this codec.
	ErrMalformed = errors.New("token: malformed or invalid signature")
	// ErrWrongType is returned when a token of the wrong kind is presented
	// where a specific kind is required.
	ErrWrongType = errors.New("token: wrong token type")
)

// Claims is the payload carried by every token. Device is set on refresh
// tokens only and records the device descriptor captured at mint time.
type Claims struct {
	TokenType Type   `json:"typ"`
	Device    string `json:"dev,omitempty"`
	jwt.RegisteredClaims
}

// Config configures a Manager. Secret is required. Zero TTLs take the
// defaults (15 minutes access, 30 days refresh); negative TTLs are accepted
// and produce tokens that are already expired, which the test suite relies
// on. Now is an optional clock override.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Now        func() time.Time
}

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Manager is an immutable token codec, safe for concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{config: cfg, now: now}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// SignAccess mints an access token for the given subject.
func (m *Manager) SignAccess(subject string) (string, error) {
	return m.sign(subject, TypeAccess, "", m.config.AccessTTL)
}

// SignRefresh mints a refresh token for the given subject, embedding the
// device descriptor captured at mint time.
func (m *Manager) SignRefresh(subject, device string) (string, error) {
	return m.sign(subject, TypeRefresh, device, m.config.RefreshTTL)
}

func (m *Manager) sign(subject string, typ Type, device string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		TokenType: typ,
		Device:    device,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify parses tokenStr and checks signature, expiry, and type tag.
// Failures map to ErrExpired, ErrMalformed, or ErrWrongType.
func (m *Manager) Verify(tokenStr string, want Type) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.TokenType != want {
		return nil, ErrWrongType
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}
