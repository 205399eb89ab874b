// Package lockout implements the per-account failed-attempt state machine.
//
// The guard mutates counters on a UserRecord and performs no I/O of its own;
// callers run it inside Store.Update so the lock check and the counter write
// act on the same record fetch. Expired locks are reaped lazily on the next
// attempt, not by a background sweep.
package lockout

import (
	"time"

	"github.com/recallbox/authcore/store"
)

// Guard enforces temporary lockout after Threshold consecutive failures.
// The lock expires Window after the triggering failure.
type Guard struct {
	Threshold int
	Window    time.Duration
}

// Locked reports whether the account is under an unexpired lock. An expired
// lock does not count; RecordFailure and RecordSuccess clear it.
func (g Guard) Locked(u *store.UserRecord, now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

// RecordFailure counts one failed attempt and returns true when this failure
// tripped the lock. A stale expired lock is cleared first, so the attempt
// counts as the first of a new streak.
func (g Guard) RecordFailure(u *store.UserRecord, now time.Time) bool {
	if u.LockUntil != nil && !now.Before(*u.LockUntil) {
		u.LoginAttempts = 0
		u.LockUntil = nil
	}

	u.LoginAttempts++
	if u.LoginAttempts >= g.Threshold {
		until := now.Add(g.Window)
		u.LockUntil = &until
		return true
	}
	return false
}

// RecordSuccess resets the streak after a successful authentication.
func (g Guard) RecordSuccess(u *store.UserRecord) {
	u.LoginAttempts = 0
	u.LockUntil = nil
}
