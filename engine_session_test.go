package authcore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRefreshRotates(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	signupAlice(t, engine)
	pair := loginAlice(t, engine, "laptop")
	ctx := context.Background()

	next, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}

	// The consumed token is dead; the rotated one works.
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replay err = %v, want ErrInvalidRefreshToken", err)
	}
	if _, err := engine.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("rotated token refresh failed: %v", err)
	}
}

func TestRefreshKeepsSessionCount(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	res := signupAlice(t, engine)
	pair := loginAlice(t, engine, "laptop")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		next, err := engine.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			t.Fatalf("refresh %d failed: %v", i, err)
		}
		pair = next
	}

	infos, err := engine.Sessions(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("session count = %d, want 1 after repeated rotation", len(infos))
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	signupAlice(t, engine)
	pair := loginAlice(t, engine, "")

	if _, err := engine.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidTokenType) {
		t.Fatalf("err = %v, want ErrInvalidTokenType", err)
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	engine, _, clk := newTestEngine(t, func(cfg *Config) {
		cfg.Token.RefreshTTL = time.Hour
	})
	signupAlice(t, engine)
	pair := loginAlice(t, engine, "")

	clk.Advance(time.Hour + time.Minute)

	if _, err := engine.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("err = %v, want ErrRefreshTokenExpired", err)
	}
}

func TestLogout(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	res := signupAlice(t, engine)
	laptop := loginAlice(t, engine, "laptop")
	phone := loginAlice(t, engine, "phone")
	ctx := context.Background()

	if err := engine.Logout(ctx, res.User.ID, laptop.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// Only the targeted session is revoked.
	if _, err := engine.Refresh(ctx, laptop.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("revoked token err = %v, want ErrInvalidRefreshToken", err)
	}
	if _, err := engine.Refresh(ctx, phone.RefreshToken); err != nil {
		t.Fatalf("surviving session refresh failed: %v", err)
	}

	// Logging out the same token again is idempotent.
	if err := engine.Logout(ctx, res.User.ID, laptop.RefreshToken); err != nil {
		t.Fatalf("repeated Logout failed: %v", err)
	}

	// The token is required; a blanket sign-out goes through LogoutAll.
	if err := engine.Logout(ctx, res.User.ID, ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("empty token err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogoutAll(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	res := signupAlice(t, engine)
	laptop := loginAlice(t, engine, "laptop")
	phone := loginAlice(t, engine, "phone")
	ctx := context.Background()

	if err := engine.LogoutAll(ctx, res.User.ID); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}

	for _, tok := range []string{laptop.RefreshToken, phone.RefreshToken} {
		if _, err := engine.Refresh(ctx, tok); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Fatalf("err = %v, want ErrInvalidRefreshToken", err)
		}
	}

	infos, err := engine.Sessions(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("session count = %d, want 0", len(infos))
	}
}

func TestSessionCapAcrossLogins(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	res := signupAlice(t, engine)
	ctx := context.Background()

	pairs := make([]TokenPair, 0, 6)
	for i := 0; i < 6; i++ {
		pairs = append(pairs, loginAlice(t, engine, fmt.Sprintf("device-%d", i)))
	}

	infos, err := engine.Sessions(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(infos) != 5 {
		t.Fatalf("session count = %d, want 5", len(infos))
	}
	if infos[0].DeviceInfo != "device-1" {
		t.Fatalf("oldest session = %q, want device-1", infos[0].DeviceInfo)
	}

	if _, err := engine.Refresh(ctx, pairs[0].RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("evicted token err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestValidateAccess(t *testing.T) {
	engine, _, clk := newTestEngine(t, nil)
	res := signupAlice(t, engine)
	pair := loginAlice(t, engine, "")

	userID, err := engine.ValidateAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if userID != res.User.ID {
		t.Fatalf("subject = %q, want %q", userID, res.User.ID)
	}

	// A refresh token must never authenticate a request.
	if _, err := engine.ValidateAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidTokenType) {
		t.Fatalf("refresh-as-access err = %v, want ErrInvalidTokenType", err)
	}

	clk.Advance(15*time.Minute + time.Second)
	if _, err := engine.ValidateAccess(pair.AccessToken); err == nil {
		t.Fatal("expected the access token to expire")
	}
}

func TestCurrentUserSanitized(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	res := signupAlice(t, engine)
	loginAlice(t, engine, "laptop")

	u, err := engine.CurrentUser(context.Background(), res.User.ID)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if u.Email != "alice@example.com" || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if len(u.Sessions) != 1 {
		t.Fatalf("session count = %d, want 1", len(u.Sessions))
	}
	if u.Sessions[0].ID == "" || u.Sessions[0].DeviceInfo != "laptop" {
		t.Fatalf("unexpected session view: %+v", u.Sessions[0])
	}
}

func TestCurrentUserUnknown(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)

	if _, err := engine.CurrentUser(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
