package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// API keys look like "cpk_<64 hex chars>". Only the SHA-256 digest is stored;
// the prefix is kept alongside it purely so listings stay recognizable.
const (
	apiKeyScheme    = "cpk_"
	apiKeyRandBytes = 32
	keyPrefixLen    = 12
)

// GenerateAPIKey returns a fresh raw key, its display prefix and its digest.
// The raw key is shown to the caller exactly once and never persisted.
func GenerateAPIKey() (raw, prefix, hash string, err error) {
	buf := make([]byte, apiKeyRandBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("key generation failed: %w", err)
	}
	raw = apiKeyScheme + hex.EncodeToString(buf)
	prefix = raw[:keyPrefixLen]
	hash = HashAPIKey(raw)
	return raw, prefix, hash, nil
}

// HashAPIKey returns the hex SHA-256 digest of a raw key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// SecureCompare reports whether a and b are equal without leaking timing.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
