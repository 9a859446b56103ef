// Package domain defines the user account model.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/sanctumapp/sanctum/internal/errors"
)

// User is an account holder.
//
// PasswordHash is the Argon2id login hash and is unrelated to the envelope
// KEK derivation; knowing the hash never yields a content key. LegacySalt is
// the per-user salt the old scheme derived its content key with; it stays on
// the row after migration so old backups remain interpretable.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	LegacySalt   []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.Wrap(errors.ErrConflict, "email already registered")

	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
)
