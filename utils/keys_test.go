package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	raw, prefix, hash, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "cpk_"))
	assert.Len(t, raw, len("cpk_")+64)
	assert.Equal(t, raw[:12], prefix)
	assert.Len(t, hash, 64)
	assert.Equal(t, HashAPIKey(raw), hash)
	assert.NotContains(t, hash, raw[4:])
}

func TestGenerateAPIKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		raw, _, hash, err := GenerateAPIKey()
		require.NoError(t, err)
		assert.False(t, seen[raw], "duplicate raw key")
		assert.False(t, seen[hash], "duplicate digest")
		seen[raw] = true
		seen[hash] = true
	}
}

func TestHashAPIKeyDeterministic(t *testing.T) {
	a := HashAPIKey("cpk_deadbeef")
	b := HashAPIKey("cpk_deadbeef")
	c := HashAPIKey("cpk_deadbeee")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("s3cret", "s3cret"))
	assert.False(t, SecureCompare("s3cret", "s3cret "))
	assert.False(t, SecureCompare("s3cret", ""))
	assert.False(t, SecureCompare("", "s3cret"))
	assert.True(t, SecureCompare("", ""))
}
