package authcore

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recallbox/authcore/internal/lockout"
	"github.com/recallbox/authcore/password"
	"github.com/recallbox/authcore/session"
	"github.com/recallbox/authcore/store"
	"github.com/recallbox/authcore/token"
)

// Builder assembles an [Engine]. Construction is allocation-only except for
// one bcrypt hash (the decoy used on the unknown-email signin path); no I/O
// happens until Engine methods are called.
type Builder struct {
	config Config
	store  store.Store
	logger zerolog.Logger
	now    func() time.Time
	built  bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
		now:    time.Now,
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore injects the credential store. Required.
func (b *Builder) WithStore(st store.Store) *Builder {
	b.store = st
	return b
}

func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.logger = log
	return b
}

// WithClock overrides the clock threaded into every component. Test seam.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("authcore: builder already used")
	}
	b.built = true

	if b.store == nil {
		return nil, errors.New("authcore: credential store is required")
	}
	if len(b.config.Token.Secret) == 0 {
		return nil, errors.New("authcore: signing secret is required")
	}
	if b.config.Lockout.Threshold <= 0 {
		return nil, errors.New("authcore: lockout threshold must be positive")
	}
	if b.config.Lockout.Window <= 0 {
		return nil, errors.New("authcore: lockout window must be positive")
	}
	if b.config.Password.MinLength <= 0 {
		b.config.Password.MinLength = defaultConfig().Password.MinLength
	}

	hasher, err := password.New(password.Config{Cost: b.config.Password.Cost})
	if err != nil {
		return nil, err
	}

	codec, err := token.NewManager(token.Config{
		Secret:     b.config.Token.Secret,
		AccessTTL:  b.config.Token.AccessTTL,
		RefreshTTL: b.config.Token.RefreshTTL,
		Issuer:     b.config.Token.Issuer,
		Now:        b.now,
	})
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(b.store, codec, session.Config{
		MaxPerUser:       b.config.Session.MaxPerUser,
		DeviceInfoMaxLen: b.config.Session.DeviceInfoMaxLen,
	}).WithClock(b.now).WithLogger(b.logger)

	// Hashing a throwaway value keeps the unknown-email signin path as
	// expensive as a real password check, closing the timing side-channel
	// that would otherwise reveal whether an email is registered.
	decoyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      b.config,
		store:    b.store,
		hasher:   hasher,
		codec:    codec,
		sessions: sessions,
		guard: lockout.Guard{
			Threshold: b.config.Lockout.Threshold,
			Window:    b.config.Lockout.Window,
		},
		log:       b.logger,
		now:       b.now,
		decoyHash: decoyHash,
	}, nil
}
