package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, "actest")
}

func TestRedisCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	seedUser(t, r, "u1", "alice", "alice@example.com")

	byID, err := r.UserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	byEmail, err := r.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", byEmail.ID)

	_, err = r.UserByID(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.UserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	seedUser(t, r, "u1", "alice", "alice@example.com")

	err := r.CreateUser(ctx, &UserRecord{ID: "u2", Username: "bob", Email: "alice@example.com"})
	require.ErrorIs(t, err, ErrDuplicate)

	err = r.CreateUser(ctx, &UserRecord{ID: "u3", Username: "alice", Email: "other@example.com"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestRedisUpdatePersists(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	seedUser(t, r, "u1", "alice", "alice@example.com")

	updated, err := r.Update(ctx, "u1", func(u *UserRecord) error {
		u.Sessions = append(u.Sessions, SessionRecord{
			ID:        "s1",
			TokenHash: "h1",
			ExpiresAt: time.Now().Add(time.Hour),
		})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, updated.Sessions, 1)

	reread, err := r.UserByID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reread.Sessions, 1)
	require.Equal(t, "h1", reread.Sessions[0].TokenHash)
}

func TestRedisUpdateErrorAbortsWrite(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	seedUser(t, r, "u1", "alice", "alice@example.com")

	sentinel := errors.New("precondition failed")
	_, err := r.Update(ctx, "u1", func(u *UserRecord) error {
		u.LoginAttempts = 99
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	reread, err := r.UserByID(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, reread.LoginAttempts)
}

func TestRedisUpdateUnknownUser(t *testing.T) {
	r := newTestRedis(t)
	_, err := r.Update(context.Background(), "ghost", func(u *UserRecord) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisOneTimeHashIndexes(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	seedUser(t, r, "u1", "alice", "alice@example.com")

	expires := time.Now().Add(time.Hour)
	_, err := r.Update(ctx, "u1", func(u *UserRecord) error {
		u.ResetTokenHash = "reset-hash"
		u.ResetExpires = &expires
		return nil
	})
	require.NoError(t, err)

	byReset, err := r.UserByResetTokenHash(ctx, "reset-hash")
	require.NoError(t, err)
	require.Equal(t, "u1", byReset.ID)

	// Replacing the token drops the old index entry.
	_, err = r.Update(ctx, "u1", func(u *UserRecord) error {
		u.ResetTokenHash = "reset-hash-2"
		return nil
	})
	require.NoError(t, err)

	_, err = r.UserByResetTokenHash(ctx, "reset-hash")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.UserByResetTokenHash(ctx, "reset-hash-2")
	require.NoError(t, err)

	// Clearing the token drops the index entirely.
	_, err = r.Update(ctx, "u1", func(u *UserRecord) error {
		u.ResetTokenHash = ""
		u.ResetExpires = nil
		return nil
	})
	require.NoError(t, err)

	_, err = r.UserByResetTokenHash(ctx, "reset-hash-2")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.UserByResetTokenHash(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisVerificationHashIndexedAtCreate(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	expires := time.Now().Add(24 * time.Hour)
	require.NoError(t, r.CreateUser(ctx, &UserRecord{
		ID:                    "u1",
		Username:              "alice",
		Email:                 "alice@example.com",
		VerificationTokenHash: "verify-hash",
		VerificationExpires:   &expires,
	}))

	byVerify, err := r.UserByVerificationTokenHash(ctx, "verify-hash")
	require.NoError(t, err)
	require.Equal(t, "u1", byVerify.ID)
}

func TestRedisUnavailableWrapped(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	r := NewRedis(client, "actest")

	mr.Close()

	_, err = r.UserByID(context.Background(), "u1")
	require.ErrorIs(t, err, ErrUnavailable)
}
