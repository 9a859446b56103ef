// Package service implements the superseded content-key scheme: a single key
// derived straight from the password, used to encrypt content directly. It
// exists only so the migration can read what the old scheme wrote. Nothing
// new is ever encrypted under it.
package service

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	cryptoService "github.com/sanctumapp/sanctum/internal/crypto/service"
)

// DefaultIterations is the PBKDF2 iteration count the old scheme shipped with.
const DefaultIterations = 600_000

// KeyDeriver derives the legacy content key from a password and the per-user
// salt stored on the user row.
type KeyDeriver struct {
	iterations int
}

// NewKeyDeriver creates a legacy KeyDeriver. Non-positive iteration counts
// fall back to DefaultIterations.
func NewKeyDeriver(iterations int) *KeyDeriver {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &KeyDeriver{iterations: iterations}
}

// DeriveContentKey derives the 256-bit legacy content key with
// PBKDF2-HMAC-SHA256. The iteration count must match what the old scheme
// used, or every legacy item will fail to decrypt.
func (d *KeyDeriver) DeriveContentKey(password string, salt []byte) (cryptoDomain.KeyHandle, error) {
	if len(salt) != cryptoService.SaltSize {
		return cryptoDomain.KeyHandle{}, cryptoDomain.ErrInvalidSaltSize
	}

	key := pbkdf2.Key([]byte(password), salt, d.iterations, cryptoDomain.KeySize, sha256.New)
	defer cryptoDomain.Zero(key)

	return cryptoDomain.NewKeyHandle(key)
}
