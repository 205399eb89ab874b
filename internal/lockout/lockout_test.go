package lockout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recallbox/authcore/store"
)

var testGuard = Guard{Threshold: 5, Window: 15 * time.Minute}

func TestThresholdTripsLock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	u := &store.UserRecord{ID: "u1"}

	for i := 1; i < testGuard.Threshold; i++ {
		require.False(t, testGuard.RecordFailure(u, now), "failure %d should not trip the lock", i)
		require.False(t, testGuard.Locked(u, now))
	}

	require.True(t, testGuard.RecordFailure(u, now))
	require.True(t, testGuard.Locked(u, now))
	require.Equal(t, now.Add(testGuard.Window), *u.LockUntil)
}

func TestLockExpires(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	u := &store.UserRecord{ID: "u1"}

	for i := 0; i < testGuard.Threshold; i++ {
		testGuard.RecordFailure(u, now)
	}
	require.True(t, testGuard.Locked(u, now))
	require.True(t, testGuard.Locked(u, now.Add(testGuard.Window-time.Second)))
	require.False(t, testGuard.Locked(u, now.Add(testGuard.Window)))
}

func TestFailureAfterExpiredLockStartsNewStreak(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	u := &store.UserRecord{ID: "u1"}

	for i := 0; i < testGuard.Threshold; i++ {
		testGuard.RecordFailure(u, now)
	}

	later := now.Add(testGuard.Window + time.Minute)
	require.False(t, testGuard.RecordFailure(u, later))
	require.Equal(t, 1, u.LoginAttempts)
	require.Nil(t, u.LockUntil)
}

func TestSuccessResetsStreak(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	u := &store.UserRecord{ID: "u1"}

	testGuard.RecordFailure(u, now)
	testGuard.RecordFailure(u, now)
	require.Equal(t, 2, u.LoginAttempts)

	testGuard.RecordSuccess(u)
	require.Zero(t, u.LoginAttempts)
	require.Nil(t, u.LockUntil)

	// The streak restarts from zero after a success.
	require.False(t, testGuard.RecordFailure(u, now))
	require.Equal(t, 1, u.LoginAttempts)
}
