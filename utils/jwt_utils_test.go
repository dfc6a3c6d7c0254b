package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "secret", time.Hour)
	require.NoError(t, err)

	userID, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(42, "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "another-secret")
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(42, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", "secret")
	assert.Error(t, err)
}
