package domain

import (
	"github.com/sanctumapp/sanctum/internal/errors"
)

// Envelope lifecycle and migration error definitions.
var (
	// ErrAuthenticationFailed indicates an unwrap or unlock failed its AEAD
	// authentication check. Wrong secret and corrupted record are deliberately
	// indistinguishable; the recovery action for both is to ask the user for
	// the secret again.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrUnauthorized, "authentication failed")

	// ErrLegacyKeyUnavailable indicates migration was attempted without the
	// legacy content key cached in the current session. The key is only ever
	// obtained by authenticating under the old scheme, never re-derived from
	// a stored hash; re-authenticate and retry.
	ErrLegacyKeyUnavailable = errors.Wrap(errors.ErrUnauthorized, "legacy key not available in session")

	// ErrVerificationFailed indicates the migration's post-re-encryption
	// sanity check failed. The attempt is aborted before any content write,
	// so legacy content is untouched and a retry is safe.
	ErrVerificationFailed = errors.Wrap(errors.ErrInvalidInput, "migration verification failed")

	// ErrRecoveryUnavailable indicates a recovery restore was requested on a
	// record that has no recovery wrapping.
	ErrRecoveryUnavailable = errors.Wrap(errors.ErrNotFound, "no recovery wrapping on key record")

	// ErrKeyRecordNotFound indicates no key record exists for the user.
	ErrKeyRecordNotFound = errors.Wrap(errors.ErrNotFound, "key record not found")

	// ErrKeyRecordExists indicates setup was attempted for a user that
	// already has a key record.
	ErrKeyRecordExists = errors.Wrap(errors.ErrConflict, "key record already exists")

	// ErrMigrationIncomplete indicates a password-changing operation was
	// attempted while content migration is unfinished. Items still on the
	// legacy scheme are only decryptable while the legacy key can be derived
	// from the current password; finish the migration first.
	ErrMigrationIncomplete = errors.Wrap(errors.ErrConflict, "content migration not finished")
)
