package authcore

import (
	"testing"
	"time"

	"github.com/recallbox/authcore/store"
)

func TestBuildValidation(t *testing.T) {
	base := func() Config {
		cfg := defaultConfig()
		cfg.Token.Secret = []byte("secret")
		return cfg
	}

	t.Run("missing store", func(t *testing.T) {
		if _, err := New().WithConfig(base()).Build(); err == nil {
			t.Fatal("expected Build to fail without a store")
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := base()
		cfg.Token.Secret = nil
		if _, err := New().WithConfig(cfg).WithStore(store.NewMemory()).Build(); err == nil {
			t.Fatal("expected Build to fail without a secret")
		}
	})

	t.Run("bad lockout threshold", func(t *testing.T) {
		cfg := base()
		cfg.Lockout.Threshold = 0
		if _, err := New().WithConfig(cfg).WithStore(store.NewMemory()).Build(); err == nil {
			t.Fatal("expected Build to fail with zero threshold")
		}
	})

	t.Run("bad lockout window", func(t *testing.T) {
		cfg := base()
		cfg.Lockout.Window = -time.Minute
		if _, err := New().WithConfig(cfg).WithStore(store.NewMemory()).Build(); err == nil {
			t.Fatal("expected Build to fail with negative window")
		}
	})

	t.Run("bad bcrypt cost", func(t *testing.T) {
		cfg := base()
		cfg.Password.Cost = 99
		if _, err := New().WithConfig(cfg).WithStore(store.NewMemory()).Build(); err == nil {
			t.Fatal("expected Build to fail with out-of-range cost")
		}
	})
}

func TestBuilderSingleUse(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.Secret = []byte("secret")
	cfg.Password.Cost = 4

	b := New().WithConfig(cfg).WithStore(store.NewMemory())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}
