package service

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	"github.com/sanctumapp/sanctum/internal/recovery"
)

// SaltSize is the required size in bytes for KDF salts.
const SaltSize = 16

// Argon2Deriver implements KeyDeriver using Argon2id.
//
// The configured cost parameters apply to new derivations only; unwrapping an
// existing blob always uses the parameters stored with that blob.
type Argon2Deriver struct {
	params cryptoDomain.KDFParams
}

// NewArgon2Deriver creates a KeyDeriver with the given Argon2id parameters.
// Zero-valued parameters fall back to the OWASP-recommended defaults.
func NewArgon2Deriver(params cryptoDomain.KDFParams) *Argon2Deriver {
	if !params.Valid() {
		params = cryptoDomain.DefaultKDFParams()
	}
	return &Argon2Deriver{params: params}
}

// NewSalt reads 16 random bytes from the OS CSPRNG.
func (d *Argon2Deriver) NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Params returns the configured derivation parameters.
func (d *Argon2Deriver) Params() cryptoDomain.KDFParams {
	return d.params
}

// DeriveFromPassword derives a 256-bit KEK from the password and salt.
func (d *Argon2Deriver) DeriveFromPassword(
	password string,
	salt []byte,
	params cryptoDomain.KDFParams,
) (cryptoDomain.KeyHandle, error) {
	return d.derive(password, salt, params)
}

// DeriveFromRecoveryPhrase normalizes the phrase and derives a 256-bit KEK
// from it. Normalization here must match the normalization applied when the
// phrase was generated, or legitimate phrases would fail to unwrap.
func (d *Argon2Deriver) DeriveFromRecoveryPhrase(
	phrase string,
	salt []byte,
	params cryptoDomain.KDFParams,
) (cryptoDomain.KeyHandle, error) {
	return d.derive(recovery.Normalize(phrase), salt, params)
}

func (d *Argon2Deriver) derive(
	secret string,
	salt []byte,
	params cryptoDomain.KDFParams,
) (cryptoDomain.KeyHandle, error) {
	if len(salt) != SaltSize {
		return cryptoDomain.KeyHandle{}, cryptoDomain.ErrInvalidSaltSize
	}
	if !params.Valid() {
		return cryptoDomain.KeyHandle{}, cryptoDomain.ErrInvalidKDFParams
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		params.Time,
		params.MemoryKiB,
		params.Threads,
		cryptoDomain.KeySize,
	)
	defer cryptoDomain.Zero(key)

	return cryptoDomain.NewKeyHandle(key)
}
