// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "correct-horse-battery")

	ok, err := VerifyPassword("correct-horse-battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordTimingSafeNilHash(t *testing.T) {
	// The nil-hash path exists so unknown emails burn the same time as
	// known ones. It must never report a match.
	ok, err := VerifyPasswordTimingSafe("any-password", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateRefreshTokenUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for range 100 {
		tok, err := GenerateRefreshToken()
		require.NoError(t, err)
		require.NotEmpty(t, tok)

		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	tok, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.Equal(t, HashToken(tok), HashToken(tok))
	assert.NotEqual(t, tok, HashToken(tok))
	assert.True(t, CompareTokenHash(tok, HashToken(tok)))
	assert.False(t, CompareTokenHash("other-token", HashToken(tok)))
}
