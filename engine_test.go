package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/recallbox/authcore/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestEngine builds an engine on the in-memory store with a frozen clock
// and the cheapest bcrypt cost so tests stay fast.
func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *store.Memory, *fakeClock) {
	t.Helper()

	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	cfg := defaultConfig()
	cfg.Token.Secret = []byte("engine-test-secret")
	cfg.Password.Cost = bcrypt.MinCost
	if mutate != nil {
		mutate(&cfg)
	}

	st := store.NewMemory()
	engine, err := New().
		WithConfig(cfg).
		WithStore(st).
		WithClock(clk.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine, st, clk
}

// signupAlice registers the default test account and returns the signup
// result, which carries the raw verification token when one was issued.
func signupAlice(t *testing.T, engine *Engine) *SignupResult {
	t.Helper()

	res, err := engine.Signup(context.Background(), "alice", "alice@example.com", "sw0rdfish pass")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	return res
}

func loginAlice(t *testing.T, engine *Engine, device string) TokenPair {
	t.Helper()

	pair, err := engine.Login(context.Background(), "alice@example.com", "sw0rdfish pass", device)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return pair
}
