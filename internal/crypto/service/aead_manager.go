package service

import (
	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
)

// AEADManagerService implements the AEADManager interface for creating AEAD cipher instances.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for the specified algorithm.
// Returns ErrInvalidKeySize if the handle is empty or ErrUnsupportedAlgorithm
// if the algorithm is unknown.
func (am *AEADManagerService) CreateCipher(
	key cryptoDomain.KeyHandle,
	alg cryptoDomain.Algorithm,
) (AEAD, error) {
	if key.IsZero() {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCM(key.Bytes())
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(key.Bytes())
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}
