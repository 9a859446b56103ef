package app

import (
	"fmt"

	contentRepository "github.com/sanctumapp/sanctum/internal/content/repository"
	envelopeRepository "github.com/sanctumapp/sanctum/internal/envelope/repository"
	envelopeUsecase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	migrationUsecase "github.com/sanctumapp/sanctum/internal/migration/usecase"
	userRepository "github.com/sanctumapp/sanctum/internal/user/repository"
	userUsecase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// ContentRepository is the full content persistence surface: creation for
// seeding plus the listing and rewriting the migration needs.
type ContentRepository interface {
	migrationUsecase.ContentRepository
	userUsecase.ContentWriter
}

// KeyRecordRepository returns the key record repository instance.
func (c *Container) KeyRecordRepository() (envelopeUsecase.KeyRecordRepository, error) {
	c.keyRecordRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["keyRecordRepo"] = fmt.Errorf("failed to get database for key record repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.keyRecordRepo = envelopeRepository.NewMySQLKeyRecordRepository(db)
		case "postgres":
			c.keyRecordRepo = envelopeRepository.NewPostgreSQLKeyRecordRepository(db)
		default:
			c.initErrors["keyRecordRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["keyRecordRepo"]; exists {
		return nil, storedErr
	}
	return c.keyRecordRepo, nil
}

// ContentRepo returns the content item repository instance.
func (c *Container) ContentRepo() (ContentRepository, error) {
	c.contentRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["contentRepo"] = fmt.Errorf("failed to get database for content repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.contentRepo = contentRepository.NewMySQLContentRepository(db)
		case "postgres":
			c.contentRepo = contentRepository.NewPostgreSQLContentRepository(db)
		default:
			c.initErrors["contentRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["contentRepo"]; exists {
		return nil, storedErr
	}
	return c.contentRepo, nil
}

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (userUsecase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// LifecycleUseCase returns the envelope-key lifecycle use case, wrapped with
// metrics instrumentation.
func (c *Container) LifecycleUseCase() (envelopeUsecase.LifecycleUseCase, error) {
	c.lifecycleUseCaseInit.Do(func() {
		keyRecordRepo, err := c.KeyRecordRepository()
		if err != nil {
			c.initErrors["lifecycleUseCase"] = err
			return
		}
		wrapper, err := c.KeyWrapper()
		if err != nil {
			c.initErrors["lifecycleUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["lifecycleUseCase"] = err
			return
		}

		uc := envelopeUsecase.NewLifecycleUseCase(keyRecordRepo, wrapper, c.Keyring())
		c.lifecycleUseCase = envelopeUsecase.NewLifecycleUseCaseWithMetrics(uc, bm)
	})
	if storedErr, exists := c.initErrors["lifecycleUseCase"]; exists {
		return nil, storedErr
	}
	return c.lifecycleUseCase, nil
}

// MigrationUseCase returns the legacy-to-envelope migration use case, wrapped
// with metrics instrumentation.
func (c *Container) MigrationUseCase() (migrationUsecase.MigrationUseCase, error) {
	c.migrationUseCaseInit.Do(func() {
		keyRecordRepo, err := c.KeyRecordRepository()
		if err != nil {
			c.initErrors["migrationUseCase"] = err
			return
		}
		contentRepo, err := c.ContentRepo()
		if err != nil {
			c.initErrors["migrationUseCase"] = err
			return
		}
		wrapper, err := c.KeyWrapper()
		if err != nil {
			c.initErrors["migrationUseCase"] = err
			return
		}
		alg, err := c.envelopeAlgorithm()
		if err != nil {
			c.initErrors["migrationUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["migrationUseCase"] = err
			return
		}

		uc := migrationUsecase.NewMigrationUseCase(
			keyRecordRepo,
			contentRepo,
			wrapper,
			c.AEADManager(),
			c.Keyring(),
			alg,
			migrationUsecase.Options{
				Parallelism:     c.config.MigrationParallelism,
				WritesPerSecond: c.config.MigrationWritesPerSec,
				WriteBurst:      c.config.MigrationWriteBurst,
			},
		)
		c.migrationUseCase = migrationUsecase.NewMigrationUseCaseWithMetrics(uc, bm)
	})
	if storedErr, exists := c.initErrors["migrationUseCase"]; exists {
		return nil, storedErr
	}
	return c.migrationUseCase, nil
}

// UserUseCase returns the user use case instance.
func (c *Container) UserUseCase() (userUsecase.UseCase, error) {
	c.userUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		contentRepo, err := c.ContentRepo()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		keyRecordRepo, err := c.KeyRecordRepository()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		alg, err := c.envelopeAlgorithm()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}

		c.userUseCase = userUsecase.NewUserUseCase(
			txManager,
			userRepo,
			contentRepo,
			keyRecordRepo,
			c.PasswordService(),
			c.LegacyKeyDeriver(),
			c.AEADManager(),
			c.Keyring(),
			alg,
		)
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}
