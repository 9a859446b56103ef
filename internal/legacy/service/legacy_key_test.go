package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
)

func TestKeyDeriver_DeriveContentKey(t *testing.T) {
	salt := []byte("0123456789abcdef")
	deriver := NewKeyDeriver(10) // keep the test fast

	t.Run("is deterministic", func(t *testing.T) {
		first, err := deriver.DeriveContentKey("hunter2hunter2", salt)
		require.NoError(t, err)
		second, err := deriver.DeriveContentKey("hunter2hunter2", salt)
		require.NoError(t, err)

		assert.True(t, first.Equal(second))
	})

	t.Run("differs by password and salt", func(t *testing.T) {
		base, err := deriver.DeriveContentKey("hunter2hunter2", salt)
		require.NoError(t, err)

		otherPassword, err := deriver.DeriveContentKey("different password", salt)
		require.NoError(t, err)
		assert.False(t, base.Equal(otherPassword))

		otherSalt, err := deriver.DeriveContentKey("hunter2hunter2", []byte("fedcba9876543210"))
		require.NoError(t, err)
		assert.False(t, base.Equal(otherSalt))
	})

	t.Run("differs by iteration count", func(t *testing.T) {
		base, err := deriver.DeriveContentKey("hunter2hunter2", salt)
		require.NoError(t, err)

		other, err := NewKeyDeriver(11).DeriveContentKey("hunter2hunter2", salt)
		require.NoError(t, err)
		assert.False(t, base.Equal(other))
	})

	t.Run("rejects short salt", func(t *testing.T) {
		_, err := deriver.DeriveContentKey("hunter2hunter2", []byte("short"))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidSaltSize)
	})
}
