package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
)

// fastParams keeps derivations cheap enough for unit tests.
var fastParams = cryptoDomain.KDFParams{Time: 1, MemoryKiB: 64, Threads: 1}

func TestArgon2Deriver_NewSalt(t *testing.T) {
	deriver := NewArgon2Deriver(fastParams)

	first, err := deriver.NewSalt()
	require.NoError(t, err)
	assert.Len(t, first, SaltSize)

	second, err := deriver.NewSalt()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestNewArgon2Deriver_InvalidParamsFallBack(t *testing.T) {
	deriver := NewArgon2Deriver(cryptoDomain.KDFParams{})

	assert.Equal(t, cryptoDomain.DefaultKDFParams(), deriver.Params())
}

func TestArgon2Deriver_DeriveFromPassword(t *testing.T) {
	deriver := NewArgon2Deriver(fastParams)
	salt := make([]byte, SaltSize)

	t.Run("deterministic for same inputs", func(t *testing.T) {
		first, err := deriver.DeriveFromPassword("password-one", salt, fastParams)
		require.NoError(t, err)
		second, err := deriver.DeriveFromPassword("password-one", salt, fastParams)
		require.NoError(t, err)

		assert.True(t, first.Equal(second))
	})

	t.Run("differs by password", func(t *testing.T) {
		first, err := deriver.DeriveFromPassword("password-one", salt, fastParams)
		require.NoError(t, err)
		second, err := deriver.DeriveFromPassword("password-two", salt, fastParams)
		require.NoError(t, err)

		assert.False(t, first.Equal(second))
	})

	t.Run("differs by salt", func(t *testing.T) {
		otherSalt := make([]byte, SaltSize)
		otherSalt[0] = 1

		first, err := deriver.DeriveFromPassword("password-one", salt, fastParams)
		require.NoError(t, err)
		second, err := deriver.DeriveFromPassword("password-one", otherSalt, fastParams)
		require.NoError(t, err)

		assert.False(t, first.Equal(second))
	})

	t.Run("rejects short salt", func(t *testing.T) {
		_, err := deriver.DeriveFromPassword("password-one", []byte("short"), fastParams)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidSaltSize)
	})

	t.Run("rejects zero cost parameters", func(t *testing.T) {
		_, err := deriver.DeriveFromPassword("password-one", salt, cryptoDomain.KDFParams{})
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKDFParams)
	})
}

func TestArgon2Deriver_DeriveFromRecoveryPhrase(t *testing.T) {
	deriver := NewArgon2Deriver(fastParams)
	salt := make([]byte, SaltSize)

	t.Run("equivalent spellings derive equal keys", func(t *testing.T) {
		canonical, err := deriver.DeriveFromRecoveryPhrase("apple banana cherry", salt, fastParams)
		require.NoError(t, err)
		messy, err := deriver.DeriveFromRecoveryPhrase("  Apple   BANANA  cherry ", salt, fastParams)
		require.NoError(t, err)

		assert.True(t, canonical.Equal(messy))
	})

	t.Run("phrase keys differ from password keys", func(t *testing.T) {
		// A phrase is normalized before derivation, so the same literal
		// string can still produce a different key than DeriveFromPassword
		// when the string is not already canonical.
		fromPhrase, err := deriver.DeriveFromRecoveryPhrase("Apple Banana", salt, fastParams)
		require.NoError(t, err)
		fromPassword, err := deriver.DeriveFromPassword("Apple Banana", salt, fastParams)
		require.NoError(t, err)

		assert.False(t, fromPhrase.Equal(fromPassword))
	})
}
