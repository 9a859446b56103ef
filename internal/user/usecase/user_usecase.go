// Package usecase implements account registration and login. Login is where
// the legacy and envelope worlds meet: a user who has not migrated gets their
// legacy content key derived and cached so the migration can run later in the
// session.
package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	authService "github.com/sanctumapp/sanctum/internal/auth/service"
	contentDomain "github.com/sanctumapp/sanctum/internal/content/domain"
	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	cryptoService "github.com/sanctumapp/sanctum/internal/crypto/service"
	"github.com/sanctumapp/sanctum/internal/database"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	envelopeUsecase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
	legacyService "github.com/sanctumapp/sanctum/internal/legacy/service"
	"github.com/sanctumapp/sanctum/internal/session"
	"github.com/sanctumapp/sanctum/internal/user/domain"
	appValidation "github.com/sanctumapp/sanctum/internal/validation"
)

// RegisterUserInput contains the input data for user registration.
type RegisterUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// ContentWriter is the content persistence slice needed for seeding.
type ContentWriter interface {
	Create(ctx context.Context, item *contentDomain.Item) error
}

// UseCase defines the interface for user business logic operations.
type UseCase interface {
	// RegisterUser creates a new account with a login hash and a fresh
	// legacy salt.
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)

	// Login verifies credentials. For a user whose content may still be on
	// the legacy scheme it derives the legacy content key and caches it in
	// the session, making a later migration possible.
	Login(ctx context.Context, email, password string) (*domain.User, error)

	// SeedLegacyContent stores items encrypted under the user's legacy
	// content key, all-or-nothing. Exists for bootstrapping legacy accounts
	// in development and tests.
	SeedLegacyContent(ctx context.Context, userID uuid.UUID, password string, plaintexts [][]byte) error

	// UpdateLoginPassword rehashes and stores a new login password. It does
	// not touch the envelope key record; callers changing the vault password
	// update both.
	UpdateLoginPassword(ctx context.Context, userID uuid.UUID, newPassword string) error

	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// UserUseCase handles user-related business logic.
type UserUseCase struct {
	txManager     database.TxManager
	userRepo      UserRepository
	contentWriter ContentWriter
	keyRecordRepo envelopeUsecase.KeyRecordRepository
	passwords     authService.PasswordService
	legacyDeriver *legacyService.KeyDeriver
	aeadManager   cryptoService.AEADManager
	keyring       *session.Keyring
	algorithm     cryptoDomain.Algorithm
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	contentWriter ContentWriter,
	keyRecordRepo envelopeUsecase.KeyRecordRepository,
	passwords authService.PasswordService,
	legacyDeriver *legacyService.KeyDeriver,
	aeadManager cryptoService.AEADManager,
	keyring *session.Keyring,
	algorithm cryptoDomain.Algorithm,
) *UserUseCase {
	return &UserUseCase{
		txManager:     txManager,
		userRepo:      userRepo,
		contentWriter: contentWriter,
		keyRecordRepo: keyRecordRepo,
		passwords:     passwords,
		legacyDeriver: legacyDeriver,
		aeadManager:   aeadManager,
		keyring:       keyring,
		algorithm:     algorithm,
	}
}

// validateRegisterUserInput validates the registration input.
func (uc *UserUseCase) validateRegisterUserInput(input RegisterUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password, appValidation.PasswordRules()...),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterUser registers a new user.
func (uc *UserUseCase) RegisterUser(
	ctx context.Context,
	input RegisterUserInput,
) (*domain.User, error) {
	if err := uc.validateRegisterUserInput(input); err != nil {
		return nil, err
	}

	hashed, err := uc.passwords.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, cryptoService.SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate legacy salt")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        input.Email,
		PasswordHash: hashed,
		LegacySalt:   salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and prepares the session keyring.
func (uc *UserUseCase) Login(
	ctx context.Context,
	email, password string,
) (*domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.passwords.VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	migrated, err := uc.isUpgraded(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if migrated {
		return user, nil
	}

	// Content may still be on the legacy scheme; derive and cache the
	// legacy key while we hold the plaintext password.
	legacyKey, err := uc.legacyDeriver.DeriveContentKey(password, user.LegacySalt)
	if err != nil {
		return nil, err
	}

	keys := session.Keys{LegacyKey: &legacyKey}
	if existing, ok := uc.keyring.Get(user.ID); ok {
		keys.DEK = existing.DEK
	}
	uc.keyring.Put(user.ID, keys)

	return user, nil
}

// SeedLegacyContent stores legacy-encrypted items for a user, all-or-nothing.
func (uc *UserUseCase) SeedLegacyContent(
	ctx context.Context,
	userID uuid.UUID,
	password string,
	plaintexts [][]byte,
) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	legacyKey, err := uc.legacyDeriver.DeriveContentKey(password, user.LegacySalt)
	if err != nil {
		return err
	}
	defer legacyKey.Destroy()

	cipher, err := uc.aeadManager.CreateCipher(legacyKey, uc.algorithm)
	if err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(txCtx context.Context) error {
		for _, plaintext := range plaintexts {
			ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			item := &contentDomain.Item{
				ID:         uuid.Must(uuid.NewV7()),
				UserID:     userID,
				Ciphertext: ciphertext,
				Nonce:      nonce,
				Scheme:     contentDomain.SchemeLegacyV1,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := uc.contentWriter.Create(txCtx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateLoginPassword rehashes and stores a new login password.
func (uc *UserUseCase) UpdateLoginPassword(
	ctx context.Context,
	userID uuid.UUID,
	newPassword string,
) error {
	if err := appValidation.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := uc.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return uc.userRepo.UpdatePassword(ctx, userID, hashed)
}

// GetUserByEmail retrieves a user by email.
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, email)
}

// GetUserByID retrieves a user by id.
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// isUpgraded reports whether the user's key record reached the terminal
// migration state.
func (uc *UserUseCase) isUpgraded(ctx context.Context, userID uuid.UUID) (bool, error) {
	record, err := uc.keyRecordRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return record.MigrationState == envelopeDomain.StateUpgraded, nil
}
