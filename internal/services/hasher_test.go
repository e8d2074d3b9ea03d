package services_test

import (
	"testing"

	"authapi/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashIsSaltedAndVerifiable(t *testing.T) {
	hasher := services.NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("secret-pw")
	require.NoError(t, err)
	second, err := hasher.Hash("secret-pw")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "every hash must use a fresh salt")
	assert.NotContains(t, first, "secret-pw")
	assert.True(t, hasher.Verify("secret-pw", first))
	assert.True(t, hasher.Verify("secret-pw", second))
	assert.False(t, hasher.Verify("secret-pX", first))
	assert.False(t, hasher.Verify("", first))
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	hasher := services.NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, hasher.Verify("secret-pw", ""))
	assert.False(t, hasher.Verify("secret-pw", "not-a-bcrypt-hash"))
	assert.False(t, hasher.Verify("secret-pw", "$2a$04$short"))
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	hasher := services.NewBcryptHasher(0)
	hash, err := hasher.Hash("secret-pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
