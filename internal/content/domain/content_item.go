// Package domain defines the encrypted content item model. Content items are
// produced and consumed by external feature code; the envelope core only
// reads and rewrites the ciphertext/nonce/scheme triple during migration.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/sanctumapp/sanctum/internal/errors"
)

// Scheme tags which encryption scheme produced an item's ciphertext.
type Scheme string

const (
	// SchemeLegacyV1 marks content encrypted directly with the old
	// password-derived key.
	SchemeLegacyV1 Scheme = "legacy_v1"

	// SchemeEnvelopeV2 marks content encrypted with the user's DEK.
	SchemeEnvelopeV2 Scheme = "envelope_v2"
)

// Item is one encrypted content blob belonging to a user's profile.
// Identity (ID) is preserved across rewrites; only ciphertext, nonce and
// scheme change when an item is migrated.
type Item struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Ciphertext []byte
	Nonce      []byte
	Scheme     Scheme
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Domain-specific errors for content operations.
var (
	// ErrItemNotFound indicates the requested content item does not exist.
	ErrItemNotFound = errors.Wrap(errors.ErrNotFound, "content item not found")
)
