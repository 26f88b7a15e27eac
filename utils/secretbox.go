package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

var (
	secretsKeyOnce sync.Once
	secretsKey     [32]byte
	secretsKeyErr  error
)

func loadSecretsKey() error {
	secretsKeyOnce.Do(func() {
		raw := strings.TrimSpace(os.Getenv("SECRETS_KEY"))
		if raw == "" {
			secretsKeyErr = errors.New("SECRETS_KEY not configured")
			return
		}
		decoded, err := hex.DecodeString(raw)
		if err != nil || len(decoded) != 32 {
			secretsKeyErr = errors.New("SECRETS_KEY must be 32 bytes hex-encoded")
			return
		}
		copy(secretsKey[:], decoded)
	})
	return secretsKeyErr
}

// SealSecret encrypts a secret value with the process key. The returned nonce
// is required to open the box again.
func SealSecret(plaintext string) (nonce, ciphertext []byte, err error) {
	if err := loadSecretsKey(); err != nil {
		return nil, nil, err
	}
	var n [24]byte
	if _, err := rand.Read(n[:]); err != nil {
		return nil, nil, err
	}
	out := secretbox.Seal(nil, []byte(plaintext), &n, &secretsKey)
	return n[:], out, nil
}

// OpenSecret decrypts a value produced by SealSecret.
func OpenSecret(nonce, ciphertext []byte) (string, error) {
	if err := loadSecretsKey(); err != nil {
		return "", err
	}
	if len(nonce) != 24 {
		return "", errors.New("invalid nonce")
	}
	var n [24]byte
	copy(n[:], nonce)
	plain, ok := secretbox.Open(nil, ciphertext, &n, &secretsKey)
	if !ok {
		return "", errors.New("secret decryption failed")
	}
	return string(plain), nil
}
