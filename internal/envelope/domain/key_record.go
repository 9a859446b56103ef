// Package domain defines the persisted envelope-key model: the per-user key
// record holding the DEK wrapped under the password KEK and the recovery KEK,
// and the migration state that tracks progress from the legacy scheme.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
)

// RecordVersion is the current key-record format version.
const RecordVersion uint = 1

// MigrationState tracks a user's progress from the legacy scheme (content
// encrypted directly with a password-derived key) to the envelope scheme.
type MigrationState string

const (
	// StateLegacy means no key record exists yet, or content is still keyed
	// directly from the password.
	StateLegacy MigrationState = "legacy"

	// StateMigrating means wrapped keys exist and are usable, but some or all
	// content may still be on the legacy scheme. Safe to retry migration.
	StateMigrating MigrationState = "migrating"

	// StateUpgraded is terminal: all content the migration could reach is on
	// the envelope scheme. There is no path back to legacy.
	StateUpgraded MigrationState = "upgraded"
)

// Valid reports whether the state is one of the known values.
func (s MigrationState) Valid() bool {
	switch s {
	case StateLegacy, StateMigrating, StateUpgraded:
		return true
	}
	return false
}

// WrappedKey is a DEK encrypted under a KEK, packaged with everything needed
// to unwrap it again: the AEAD algorithm and nonce, the KDF salt the KEK was
// derived with, and the KDF cost parameters in force at wrap time.
type WrappedKey struct {
	Algorithm  cryptoDomain.Algorithm
	Ciphertext []byte
	Nonce      []byte
	Salt       []byte
	Params     cryptoDomain.KDFParams
}

// KeyRecord is the persisted envelope-key state for one user.
//
// Two independent wrappings of the same DEK exist: one under a KEK derived
// from the password and one under a KEK derived from the recovery phrase.
// Either, combined with its secret, yields the same plaintext DEK. The
// recovery phrase itself is stored encrypted under the password KEK (reusing
// the password wrap's salt, with its own nonce) so it can be shown again on
// request.
type KeyRecord struct {
	UserID  uuid.UUID
	Version uint

	PasswordWrap WrappedKey
	RecoveryWrap *WrappedKey

	EncryptedRecoveryPhrase []byte
	RecoveryPhraseNonce     []byte

	MigrationState MigrationState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRecovery reports whether the record carries a recovery wrapping.
func (r *KeyRecord) HasRecovery() bool {
	return r.RecoveryWrap != nil
}
