package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier("")
	require.NoError(t, err)
	assert.IsType(t, PlainVerifier{}, v)

	v, err = NewVerifier("BCRYPT")
	require.NoError(t, err)
	assert.IsType(t, BcryptVerifier{}, v)

	_, err = NewVerifier("md5")
	assert.Error(t, err)
}

func TestPlainVerifierIsExactMatch(t *testing.T) {
	v := PlainVerifier{}
	assert.True(t, v.Verify("secret", "secret"))
	assert.False(t, v.Verify("secret", "Secret"))
	assert.False(t, v.Verify("secret", "secret "))
	assert.False(t, v.Verify("secret", ""))

	stored, err := v.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", stored)
}

func TestBcryptVerifier(t *testing.T) {
	v := BcryptVerifier{Cost: bcrypt.MinCost}
	stored, err := v.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored)

	assert.True(t, v.Verify(stored, "secret"))
	assert.False(t, v.Verify(stored, "wrong"))
	assert.False(t, v.Verify("secret", "secret"), "a plaintext stored value never matches")
}
