package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptCodec(t *testing.T) {
	t.Parallel()
	codec := NewBcryptCodec(bcrypt.MinCost)

	hash, err := codec.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	again, err := codec.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "each hash carries its own salt")

	assert.True(t, codec.Verify(hash, "correct horse battery"))
	assert.False(t, codec.Verify(hash, "wrong horse battery"))
}

func TestBcryptCodec_MalformedHash(t *testing.T) {
	t.Parallel()
	codec := NewBcryptCodec(bcrypt.MinCost)

	assert.NotPanics(t, func() {
		assert.False(t, codec.Verify("not-a-bcrypt-hash", "anything"))
		assert.False(t, codec.Verify("", ""))
	})
}

func TestNewBcryptCodec_CostBounds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptCodec(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptCodec(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 12, NewBcryptCodec(12).Cost())
}
