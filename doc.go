// Package authcore is the authentication and session-lifecycle core of the
// recallbox bookmarking service: signup and signin with brute-force lockout,
// rotating refresh tokens with a bounded per-user session list, and one-time
// token flows for password reset and email verification.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], and the sentinel errors of the closed failure taxonomy. Leaf
// concerns live in their own packages — token signing in token, credential
// hashing in password, the session lifecycle in session, persistence in
// store — and coordination helpers sit under internal/.
//
// # Architecture boundaries
//
// The surrounding HTTP layer maps Engine operations to endpoints and error
// kinds to status codes; this core defines neither routes nor status codes.
// The credential store is the single source of truth and the only point of
// serialization: every mutation is a read-modify-write against one user
// record, so precondition checks never act on a stale fetch.
//
// Engine methods are safe for concurrent use after construction through
// [Builder.Build]. Failures are sentinel errors matched with errors.Is;
// store unavailability is the only failure class that propagates outside
// the taxonomy.
package authcore
