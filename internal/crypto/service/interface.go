// Package service provides the cryptographic primitives for the envelope-key
// scheme: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) and the slow KDF that
// turns user secrets into key-encryption keys.
package service

import (
	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key cryptoDomain.KeyHandle, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyDeriver turns low-entropy secrets into 256-bit key-encryption keys.
//
// Derivation is deterministic for a given (secret, salt, params) triple and
// deliberately slow. Callers must generate a fresh salt for every new
// wrapping; re-using a salt across two wrappings of the same secret is
// forbidden.
type KeyDeriver interface {
	// NewSalt generates a fresh random 16-byte KDF salt.
	NewSalt() ([]byte, error)

	// Params returns the currently configured derivation parameters. These are
	// recorded next to each new wrapping so later parameter bumps never break
	// existing blobs.
	Params() cryptoDomain.KDFParams

	// DeriveFromPassword derives a KEK from a password and salt using the
	// given parameters.
	DeriveFromPassword(password string, salt []byte, params cryptoDomain.KDFParams) (cryptoDomain.KeyHandle, error)

	// DeriveFromRecoveryPhrase normalizes the phrase (lowercase, trimmed,
	// single-spaced) and derives a KEK from it. The same normalization is
	// applied at generation time, so equivalent spellings derive equal keys.
	DeriveFromRecoveryPhrase(phrase string, salt []byte, params cryptoDomain.KDFParams) (cryptoDomain.KeyHandle, error)
}
