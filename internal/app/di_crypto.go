package app

import (
	"fmt"

	authService "github.com/sanctumapp/sanctum/internal/auth/service"
	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	cryptoService "github.com/sanctumapp/sanctum/internal/crypto/service"
	envelopeService "github.com/sanctumapp/sanctum/internal/envelope/service"
	legacyService "github.com/sanctumapp/sanctum/internal/legacy/service"
)

// envelopeAlgorithm resolves the configured AEAD algorithm.
func (c *Container) envelopeAlgorithm() (cryptoDomain.Algorithm, error) {
	alg := cryptoDomain.Algorithm(c.config.EnvelopeAlgorithm)
	if !alg.Valid() {
		return "", fmt.Errorf("unsupported envelope algorithm: %s", c.config.EnvelopeAlgorithm)
	}
	return alg, nil
}

// AEADManager returns the AEAD cipher factory.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyDeriver returns the Argon2id KEK deriver configured from the
// application settings.
func (c *Container) KeyDeriver() cryptoService.KeyDeriver {
	c.keyDeriverInit.Do(func() {
		c.keyDeriver = cryptoService.NewArgon2Deriver(cryptoDomain.KDFParams{
			Time:      uint32(c.config.KDFTime),
			MemoryKiB: uint32(c.config.KDFMemoryKiB),
			Threads:   uint8(c.config.KDFThreads),
		})
	})
	return c.keyDeriver
}

// KeyWrapper returns the envelope key wrapping service.
func (c *Container) KeyWrapper() (envelopeService.KeyWrapper, error) {
	c.keyWrapperInit.Do(func() {
		alg, err := c.envelopeAlgorithm()
		if err != nil {
			c.initErrors["keyWrapper"] = err
			return
		}
		c.keyWrapper = envelopeService.NewWrapperService(c.KeyDeriver(), c.AEADManager(), alg)
	})
	if storedErr, exists := c.initErrors["keyWrapper"]; exists {
		return nil, storedErr
	}
	return c.keyWrapper, nil
}

// LegacyKeyDeriver returns the deriver for the superseded content-key scheme.
func (c *Container) LegacyKeyDeriver() *legacyService.KeyDeriver {
	c.legacyDeriverInit.Do(func() {
		c.legacyDeriver = legacyService.NewKeyDeriver(c.config.LegacyKDFIterations)
	})
	return c.legacyDeriver
}

// PasswordService returns the login credential hasher.
func (c *Container) PasswordService() authService.PasswordService {
	c.passwordServiceInit.Do(func() {
		c.passwordService = authService.NewPasswordService()
	})
	return c.passwordService
}
