// Package domain defines the core cryptographic domain models for the
// envelope-key scheme.
//
// The hierarchy is: user secret (password or recovery phrase) → KEK → DEK →
// content. KEKs are derived on demand and never persisted; the DEK is
// persisted only in wrapped form. Supports AESGCM and ChaCha20 algorithms
// with 256-bit keys.
package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"log/slog"
)

// KeySize is the required size in bytes for all symmetric keys (256 bits).
const KeySize = 32

// KeyHandle is an opaque capability holding live symmetric key material.
//
// Code outside the crypto service layer passes handles around without ever
// touching raw bytes. The handle deliberately redacts itself from fmt, slog
// and JSON so an unwrapped DEK cannot leak through logging or serialization
// by accident.
type KeyHandle struct {
	key []byte
}

// NewKeyHandle wraps the given 32-byte key material in a handle.
// The input slice is copied; the caller should zero its own copy.
func NewKeyHandle(key []byte) (KeyHandle, error) {
	if len(key) != KeySize {
		return KeyHandle{}, ErrInvalidKeySize
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return KeyHandle{key: k}, nil
}

// NewRandomKeyHandle generates a fresh 256-bit key from the OS CSPRNG.
func NewRandomKeyHandle() (KeyHandle, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return KeyHandle{}, err
	}
	return KeyHandle{key: key}, nil
}

// Bytes exposes the raw key material. Only the crypto service layer should
// call this; everything above it treats the handle as opaque.
func (h KeyHandle) Bytes() []byte {
	return h.key
}

// IsZero reports whether the handle holds no key material.
func (h KeyHandle) IsZero() bool {
	return len(h.key) == 0
}

// Equal compares two handles in constant time.
func (h KeyHandle) Equal(other KeyHandle) bool {
	if len(h.key) != len(other.key) {
		return false
	}
	return subtle.ConstantTimeCompare(h.key, other.key) == 1
}

// Destroy overwrites the key material with zeros.
// The handle must not be used afterwards.
func (h KeyHandle) Destroy() {
	Zero(h.key)
}

// String implements fmt.Stringer and never reveals key material.
func (h KeyHandle) String() string {
	return "KeyHandle(redacted)"
}

// LogValue implements slog.LogValuer so structured logs stay key-free.
func (h KeyHandle) LogValue() slog.Value {
	return slog.StringValue("redacted")
}

// MarshalJSON refuses to serialize key material.
func (h KeyHandle) MarshalJSON() ([]byte, error) {
	return nil, errors.New("key handle is not serializable")
}
