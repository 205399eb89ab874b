// Package password provides one-way credential hashing backed by bcrypt.
//
// The cost factor is tunable upward as hardware improves; existing hashes
// keep working at their recorded cost and NeedsRehash lets callers upgrade
// them transparently on the next successful verification.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// MaxPasswordBytes is bcrypt's hard input limit. Longer inputs are rejected
// rather than silently truncated.
const MaxPasswordBytes = 72

// Config configures a Hasher. A zero Cost takes DefaultCost.
type Config struct {
	Cost int
}

// Hasher hashes and verifies login credentials. It enforces no password
// policy; length and charset rules belong to the orchestrator.
type Hasher struct {
	cost int
}

func New(cfg Config) (*Hasher, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password: cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", errors.New("password: input exceeds 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. The comparison
// is constant-time within bcrypt; a malformed hash verifies as false.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NeedsRehash reports whether the stored hash was produced with a lower cost
// than currently configured. Costs are never downgraded.
func (h *Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost < h.cost
}
