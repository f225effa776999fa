package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)
	assert.NoError(t, ComparePassword(hash, "pw1"))
	assert.Error(t, ComparePassword(hash, "pw2"))

	again, err := HashPassword("pw1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("pw1", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
