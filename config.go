package authcore

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the explicit configuration of the auth core, constructed once at
// process start and injected through [Builder]. Nothing in the core reads
// ambient globals, so tests substitute fast deterministic values (cost 4,
// second-scale TTLs) without touching process state.
type Config struct {
	Token             TokenConfig
	Password          PasswordConfig
	Session           SessionConfig
	Lockout           LockoutConfig
	PasswordReset     PasswordResetConfig
	EmailVerification EmailVerificationConfig
}

// TokenConfig feeds the token codec. Secret is required; a process without
// one must not start. Rotating the secret invalidates every outstanding
// token.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

// PasswordConfig sets the bcrypt work factor and the orchestrator's password
// policy. Cost is tunable upward as hardware improves; existing hashes keep
// verifying at their recorded cost.
type PasswordConfig struct {
	Cost      int
	MinLength int
}

// SessionConfig bounds the per-user session list.
type SessionConfig struct {
	MaxPerUser       int
	DeviceInfoMaxLen int
}

// LockoutConfig tunes the brute-force guard.
type LockoutConfig struct {
	Threshold int
	Window    time.Duration
}

// PasswordResetConfig time-boxes reset tokens.
type PasswordResetConfig struct {
	TTL time.Duration
}

// EmailVerificationConfig time-boxes verification tokens. When
// VerifiedByDefault is set, signup marks accounts verified immediately and
// issues no verification token.
type EmailVerificationConfig struct {
	TTL               time.Duration
	VerifiedByDefault bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Issuer:     "authcore",
		},
		Password: PasswordConfig{
			Cost:      12,
			MinLength: 8,
		},
		Session: SessionConfig{
			MaxPerUser:       5,
			DeviceInfoMaxLen: 256,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Window:    15 * time.Minute,
		},
		PasswordReset: PasswordResetConfig{
			TTL: time.Hour,
		},
		EmailVerification: EmailVerificationConfig{
			TTL:               24 * time.Hour,
			VerifiedByDefault: false,
		},
	}
}

type envConfig struct {
	JWTSecret         string        `env:"AUTH_JWT_SECRET, required"`
	Issuer            string        `env:"AUTH_TOKEN_ISSUER, default=authcore"`
	AccessTTL         time.Duration `env:"AUTH_ACCESS_TTL, default=15m"`
	RefreshTTL        time.Duration `env:"AUTH_REFRESH_TTL, default=720h"`
	BcryptCost        int           `env:"AUTH_BCRYPT_COST, default=12"`
	PasswordMinLength int           `env:"AUTH_PASSWORD_MIN_LENGTH, default=8"`
	MaxSessions       int           `env:"AUTH_MAX_SESSIONS, default=5"`
	LockoutThreshold  int           `env:"AUTH_LOCKOUT_THRESHOLD, default=5"`
	LockoutWindow     time.Duration `env:"AUTH_LOCKOUT_WINDOW, default=15m"`
	ResetTTL          time.Duration `env:"AUTH_RESET_TTL, default=1h"`
	VerificationTTL   time.Duration `env:"AUTH_VERIFICATION_TTL, default=24h"`
	VerifiedByDefault bool          `env:"AUTH_EMAIL_VERIFIED_BY_DEFAULT, default=false"`
}

// Load reads configuration from environment variables. A missing
// AUTH_JWT_SECRET is a hard error so the process fails fast at startup.
func Load(ctx context.Context) (Config, error) {
	var env envConfig
	if err := envconfig.Process(ctx, &env); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	cfg.Token.Secret = []byte(env.JWTSecret)
	cfg.Token.Issuer = env.Issuer
	cfg.Token.AccessTTL = env.AccessTTL
	cfg.Token.RefreshTTL = env.RefreshTTL
	cfg.Password.Cost = env.BcryptCost
	cfg.Password.MinLength = env.PasswordMinLength
	cfg.Session.MaxPerUser = env.MaxSessions
	cfg.Lockout.Threshold = env.LockoutThreshold
	cfg.Lockout.Window = env.LockoutWindow
	cfg.PasswordReset.TTL = env.ResetTTL
	cfg.EmailVerification.TTL = env.VerificationTTL
	cfg.EmailVerification.VerifiedByDefault = env.VerifiedByDefault
	return cfg, nil
}
