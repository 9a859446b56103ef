// Package service implements DEK wrapping and unwrapping for the envelope
// scheme: the DEK is AEAD-encrypted under a KEK derived from a user secret,
// and the wrapped blob carries its own salt and KDF parameters.
package service

import (
	"fmt"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	cryptoService "github.com/sanctumapp/sanctum/internal/crypto/service"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	"github.com/sanctumapp/sanctum/internal/errors"
)

// KeyWrapper defines the envelope operations on a DEK.
type KeyWrapper interface {
	// GenerateDEK creates a fresh random 256-bit data-encryption key.
	GenerateDEK() (cryptoDomain.KeyHandle, error)

	// WrapWithPassword wraps the DEK under a password-derived KEK with a
	// fresh salt.
	WrapWithPassword(dek cryptoDomain.KeyHandle, password string) (envelopeDomain.WrappedKey, error)

	// WrapWithRecoveryPhrase wraps the DEK under a recovery-phrase-derived
	// KEK with a fresh salt. The phrase is normalized before derivation.
	WrapWithRecoveryPhrase(dek cryptoDomain.KeyHandle, phrase string) (envelopeDomain.WrappedKey, error)

	// UnwrapWithPassword recovers the DEK from a password wrapping. Returns
	// ErrAuthenticationFailed if the password is wrong or the blob is
	// corrupted.
	UnwrapWithPassword(wrapped envelopeDomain.WrappedKey, password string) (cryptoDomain.KeyHandle, error)

	// UnwrapWithRecoveryPhrase recovers the DEK from a recovery wrapping.
	UnwrapWithRecoveryPhrase(wrapped envelopeDomain.WrappedKey, phrase string) (cryptoDomain.KeyHandle, error)

	// EncryptRecoveryPhrase encrypts the phrase under the password KEK so it
	// can be redisplayed later. The password wrap's salt and parameters are
	// reused (same KEK); the nonce is fresh.
	EncryptRecoveryPhrase(phrase, password string, passwordWrap envelopeDomain.WrappedKey) (ciphertext, nonce []byte, err error)

	// DecryptRecoveryPhrase recovers the stored phrase using the password.
	DecryptRecoveryPhrase(record *envelopeDomain.KeyRecord, password string) (string, error)
}

// WrapperService implements KeyWrapper on top of the crypto primitives.
type WrapperService struct {
	deriver     cryptoService.KeyDeriver
	aeadManager cryptoService.AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewWrapperService creates a KeyWrapper using the given KDF and AEAD
// implementations. All new wrappings use alg; unwrapping follows the
// algorithm recorded on the key record.
func NewWrapperService(
	deriver cryptoService.KeyDeriver,
	aeadManager cryptoService.AEADManager,
	alg cryptoDomain.Algorithm,
) *WrapperService {
	return &WrapperService{
		deriver:     deriver,
		aeadManager: aeadManager,
		algorithm:   alg,
	}
}

// GenerateDEK creates a fresh random 256-bit data-encryption key.
func (w *WrapperService) GenerateDEK() (cryptoDomain.KeyHandle, error) {
	dek, err := cryptoDomain.NewRandomKeyHandle()
	if err != nil {
		return cryptoDomain.KeyHandle{}, fmt.Errorf("failed to generate DEK: %w", err)
	}
	return dek, nil
}

// WrapWithPassword wraps the DEK under a password-derived KEK.
func (w *WrapperService) WrapWithPassword(
	dek cryptoDomain.KeyHandle,
	password string,
) (envelopeDomain.WrappedKey, error) {
	return w.wrap(dek, func(salt []byte, params cryptoDomain.KDFParams) (cryptoDomain.KeyHandle, error) {
		return w.deriver.DeriveFromPassword(password, salt, params)
	})
}

// WrapWithRecoveryPhrase wraps the DEK under a recovery-phrase-derived KEK.
func (w *WrapperService) WrapWithRecoveryPhrase(
	dek cryptoDomain.KeyHandle,
	phrase string,
) (envelopeDomain.WrappedKey, error) {
	return w.wrap(dek, func(salt []byte, params cryptoDomain.KDFParams) (cryptoDomain.KeyHandle, error) {
		return w.deriver.DeriveFromRecoveryPhrase(phrase, salt, params)
	})
}

// wrap generates a fresh salt, derives the KEK and AEAD-encrypts the DEK.
func (w *WrapperService) wrap(
	dek cryptoDomain.KeyHandle,
	derive func(salt []byte, params cryptoDomain.KDFParams) (cryptoDomain.KeyHandle, error),
) (envelopeDomain.WrappedKey, error) {
	salt, err := w.deriver.NewSalt()
	if err != nil {
		return envelopeDomain.WrappedKey{}, err
	}

	params := w.deriver.Params()
	kek, err := derive(salt, params)
	if err != nil {
		return envelopeDomain.WrappedKey{}, err
	}
	defer kek.Destroy()

	aead, err := w.aeadManager.CreateCipher(kek, w.algorithm)
	if err != nil {
		return envelopeDomain.WrappedKey{}, err
	}

	ciphertext, nonce, err := aead.Encrypt(dek.Bytes(), nil)
	if err != nil {
		return envelopeDomain.WrappedKey{}, fmt.Errorf("failed to wrap DEK: %w", err)
	}

	return envelopeDomain.WrappedKey{
		Algorithm:  w.algorithm,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Salt:       salt,
		Params:     params,
	}, nil
}

// UnwrapWithPassword recovers the DEK from a password wrapping.
func (w *WrapperService) UnwrapWithPassword(
	wrapped envelopeDomain.WrappedKey,
	password string,
) (cryptoDomain.KeyHandle, error) {
	return w.unwrap(wrapped, func() (cryptoDomain.KeyHandle, error) {
		return w.deriver.DeriveFromPassword(password, wrapped.Salt, wrapped.Params)
	})
}

// UnwrapWithRecoveryPhrase recovers the DEK from a recovery wrapping.
func (w *WrapperService) UnwrapWithRecoveryPhrase(
	wrapped envelopeDomain.WrappedKey,
	phrase string,
) (cryptoDomain.KeyHandle, error) {
	return w.unwrap(wrapped, func() (cryptoDomain.KeyHandle, error) {
		return w.deriver.DeriveFromRecoveryPhrase(phrase, wrapped.Salt, wrapped.Params)
	})
}

// unwrap re-derives the KEK with the stored salt and parameters, then
// AEAD-decrypts the DEK. Any decryption failure surfaces as
// ErrAuthenticationFailed: wrong secret and corrupted record are the same
// recoverable condition from the caller's point of view.
func (w *WrapperService) unwrap(
	wrapped envelopeDomain.WrappedKey,
	derive func() (cryptoDomain.KeyHandle, error),
) (cryptoDomain.KeyHandle, error) {
	kek, err := derive()
	if err != nil {
		return cryptoDomain.KeyHandle{}, err
	}
	defer kek.Destroy()

	aead, err := w.aeadManager.CreateCipher(kek, wrapped.Algorithm)
	if err != nil {
		return cryptoDomain.KeyHandle{}, err
	}

	dekBytes, err := aead.Decrypt(wrapped.Ciphertext, wrapped.Nonce, nil)
	if err != nil {
		return cryptoDomain.KeyHandle{}, envelopeDomain.ErrAuthenticationFailed
	}
	defer cryptoDomain.Zero(dekBytes)

	return cryptoDomain.NewKeyHandle(dekBytes)
}

// EncryptRecoveryPhrase encrypts the phrase under the password KEK.
func (w *WrapperService) EncryptRecoveryPhrase(
	phrase, password string,
	passwordWrap envelopeDomain.WrappedKey,
) (ciphertext, nonce []byte, err error) {
	kek, err := w.deriver.DeriveFromPassword(password, passwordWrap.Salt, passwordWrap.Params)
	if err != nil {
		return nil, nil, err
	}
	defer kek.Destroy()

	aead, err := w.aeadManager.CreateCipher(kek, passwordWrap.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	ciphertext, nonce, err = aead.Encrypt([]byte(phrase), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt recovery phrase: %w", err)
	}
	return ciphertext, nonce, nil
}

// DecryptRecoveryPhrase recovers the stored phrase using the password.
func (w *WrapperService) DecryptRecoveryPhrase(
	record *envelopeDomain.KeyRecord,
	password string,
) (string, error) {
	if len(record.EncryptedRecoveryPhrase) == 0 {
		return "", envelopeDomain.ErrRecoveryUnavailable
	}

	kek, err := w.deriver.DeriveFromPassword(
		password,
		record.PasswordWrap.Salt,
		record.PasswordWrap.Params,
	)
	if err != nil {
		return "", err
	}
	defer kek.Destroy()

	aead, err := w.aeadManager.CreateCipher(kek, record.PasswordWrap.Algorithm)
	if err != nil {
		return "", err
	}

	phrase, err := aead.Decrypt(record.EncryptedRecoveryPhrase, record.RecoveryPhraseNonce, nil)
	if err != nil {
		return "", errors.Wrap(envelopeDomain.ErrAuthenticationFailed, "recovery phrase decrypt")
	}
	return string(phrase), nil
}
