package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

const oneTimeTokenBytes = 32

// NewOneTimeToken generates a high-entropy single-use token. The raw value
// is handed to the user for delivery; only the hash is ever persisted, so a
// compromised store cannot replay outstanding tokens.
func NewOneTimeToken() (raw string, hash string, err error) {
	var secret [oneTimeTokenBytes]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(secret[:])
	return raw, HashToken(raw), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token's raw value.
// Used for refresh tokens and one-time tokens alike; the digest is what the
// store keeps and matches against.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// HashEquals compares two token hashes in constant time.
func HashEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
