// Package service provides login credential hashing and verification.
// Implements Argon2id password hashing for account authentication. The login
// hash is deliberately separate from the envelope KDF: verifying a login
// never produces key material.
package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/sanctumapp/sanctum/internal/errors"
)

// PasswordService hashes and verifies account passwords.
type PasswordService interface {
	// HashPassword hashes a plain text password using Argon2id.
	HashPassword(plain string) (string, error)

	// VerifyPassword performs a constant-time comparison between a plain
	// password and its stored hash.
	VerifyPassword(plain, hashed string) bool
}

// passwordService implements PasswordService using Argon2id.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// NewPasswordService creates a PasswordService using the interactive policy,
// sized for per-login latency.
func NewPasswordService() PasswordService {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &passwordService{hasher: hasher}
}

// HashPassword hashes a plain text password using Argon2id.
func (s *passwordService) HashPassword(plain string) (string, error) {
	hashed, err := s.hasher.Hash([]byte(plain))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hashed, nil
}

// VerifyPassword performs a constant-time comparison between a plain
// password and its stored hash.
func (s *passwordService) VerifyPassword(plain, hashed string) bool {
	ok, err := s.hasher.Verify([]byte(plain), hashed)
	if err != nil {
		return false
	}
	return ok
}
