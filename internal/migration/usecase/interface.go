// Package usecase implements the one-way migration from the legacy content
// scheme to the envelope scheme. The orchestrator is safe to re-run: a
// partial run leaves the record in the migrating state and a later run picks
// up exactly the items that are still on the legacy scheme.
package usecase

import (
	"context"

	"github.com/google/uuid"

	contentDomain "github.com/sanctumapp/sanctum/internal/content/domain"
	migrationDomain "github.com/sanctumapp/sanctum/internal/migration/domain"
)

// ContentRepository is the slice of content persistence the migration needs:
// enumerate a user's items and rewrite the ciphertext of one item in place.
type ContentRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*contentDomain.Item, error)
	UpdateCiphertext(
		ctx context.Context,
		itemID uuid.UUID,
		ciphertext, nonce []byte,
		scheme contentDomain.Scheme,
	) error
}

// MigrationUseCase defines the legacy-to-envelope migration operation.
type MigrationUseCase interface {
	// PerformMigration moves all of a user's legacy content to the envelope
	// scheme. It requires the legacy key to be cached in the session (the
	// user logged in under the legacy scheme) and the current password.
	//
	// The key record is persisted before any content is rewritten, so an
	// interrupted run never strands re-encrypted content without its key.
	// Items that fail to decrypt or write are skipped individually and
	// reported; the record only reaches the upgraded state when nothing was
	// skipped.
	PerformMigration(ctx context.Context, userID uuid.UUID, password string) (*migrationDomain.Report, error)
}
