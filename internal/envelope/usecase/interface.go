// Package usecase implements the envelope-key lifecycle: initial setup,
// unlock, password change and recovery restore. It coordinates the key
// wrapper service, the key record repository and the session keyring.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
)

// KeyRecordRepository defines the interface for key record persistence.
//
// Only two code paths may mutate migration state: the lifecycle setup write
// and the migration orchestrator's state transitions. Implementations must
// support transaction context propagation via database.GetTx.
type KeyRecordRepository interface {
	// Create stores a new key record. Returns ErrKeyRecordExists if the user
	// already has one.
	Create(ctx context.Context, record *envelopeDomain.KeyRecord) error

	// Get retrieves the key record for a user. Returns ErrKeyRecordNotFound
	// if none exists.
	Get(ctx context.Context, userID uuid.UUID) (*envelopeDomain.KeyRecord, error)

	// Update replaces the mutable fields of an existing record (wrappings,
	// encrypted recovery phrase, migration state, updated timestamp).
	Update(ctx context.Context, record *envelopeDomain.KeyRecord) error

	// UpdateMigrationState sets only the migration state for a user.
	UpdateMigrationState(ctx context.Context, userID uuid.UUID, state envelopeDomain.MigrationState) error
}

// SetupResult is returned by Setup. RecoveryPhrase is returned exactly once
// and never re-derived automatically; the caller must display it to the user
// immediately.
type SetupResult struct {
	Record         *envelopeDomain.KeyRecord
	RecoveryPhrase string
	DEK            cryptoDomain.KeyHandle
}

// LifecycleUseCase defines the envelope-key lifecycle operations.
//
// State machine: no record → (Setup) → upgraded; upgraded → (ChangePassword)
// → upgraded; upgraded → (RestoreWithRecovery) → upgraded. There is no path
// back to legacy once upgraded. Every operation completes all derivations
// before anything is persisted, so a failure at any step leaves the stored
// record untouched and valid.
type LifecycleUseCase interface {
	// Setup creates a fresh DEK and recovery phrase for a user with no key
	// record, wraps the DEK under both secrets, persists the record in the
	// upgraded state and caches the DEK for the session.
	Setup(ctx context.Context, userID uuid.UUID, password string) (*SetupResult, error)

	// Unlock unwraps the DEK with the password and caches it for the
	// session. Returns ErrAuthenticationFailed for a wrong password or a
	// corrupted record; retry and lockout policy live with the caller.
	Unlock(ctx context.Context, userID uuid.UUID, password string) (cryptoDomain.KeyHandle, error)

	// ChangePassword re-wraps the DEK and re-encrypts the recovery phrase
	// under a new password KEK with a fresh salt. The recovery wrapping is
	// left untouched: the same recovery phrase keeps working afterwards.
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (*envelopeDomain.KeyRecord, error)

	// RestoreWithRecovery unwraps the DEK via the recovery phrase, re-wraps
	// it under a new password KEK and caches the DEK for the session.
	// Resetting the password this way does not rotate the recovery phrase.
	RestoreWithRecovery(ctx context.Context, userID uuid.UUID, recoveryPhrase, newPassword string) (*envelopeDomain.KeyRecord, error)

	// RedisplayRecoveryPhrase decrypts the stored recovery phrase with the
	// password, for the Settings screen.
	RedisplayRecoveryPhrase(ctx context.Context, userID uuid.UUID, password string) (string, error)

	// Logout clears the user's cached keys from the session.
	Logout(userID uuid.UUID)
}
