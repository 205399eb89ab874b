// Package metrics defines and registers the Prometheus metrics exposed by
// the auth core. It is the single source of truth for metric names, labels,
// and help strings; metrics register with the default registry at import
// time, and the embedding service decides whether to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authcore"

// LoginsTotal counts signin attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", or "locked"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of signin attempts, labelled by outcome.",
	},
	[]string{"result"},
)

// RefreshesTotal counts refresh-token exchanges by outcome.
// Label:
//   - result: "success", "expired", "invalid", or "wrong_type"
var RefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refreshes_total",
		Help:      "Total number of refresh-token exchanges, labelled by outcome.",
	},
	[]string{"result"},
)

// SignupsTotal counts account creation attempts.
// Label:
//   - result: "success", "duplicate", or "rejected"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, labelled by outcome.",
	},
	[]string{"result"},
)

// LockoutsTotal counts accounts entering the locked state.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lockouts_total",
		Help:      "Total number of accounts locked after repeated failures.",
	},
)

// SessionsEvictedTotal counts sessions dropped by the per-user capacity cap.
var SessionsEvictedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_evicted_total",
		Help:      "Total number of sessions evicted by the FIFO capacity cap.",
	},
)

// PasswordResetsTotal counts one-time password-reset operations.
// Labels:
//   - op: "request" or "confirm"
//   - result: "success" or "failure"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password-reset requests and confirmations.",
	},
	[]string{"op", "result"},
)

// EmailVerificationsTotal counts one-time email-verification operations.
// Labels mirror PasswordResetsTotal.
var EmailVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_verifications_total",
		Help:      "Total number of email-verification requests and confirmations.",
	},
	[]string{"op", "result"},
)
