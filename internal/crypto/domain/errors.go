package domain

import (
	"github.com/sanctumapp/sanctum/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors so
// callers can branch on the broad category without losing the crypto context.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates an AEAD open failed.
	//
	// A wrong key, a tampered ciphertext, and a corrupted nonce are all
	// indistinguishable here; the single error is deliberate so that callers
	// cannot leak which one occurred.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrInvalidSaltSize indicates a KDF salt is not exactly 16 bytes.
	ErrInvalidSaltSize = errors.Wrap(errors.ErrInvalidInput, "invalid salt size")

	// ErrInvalidKDFParams indicates stored KDF parameters have a zero cost field.
	ErrInvalidKDFParams = errors.Wrap(errors.ErrInvalidInput, "invalid kdf parameters")
)
