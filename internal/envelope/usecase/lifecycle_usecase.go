package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	envelopeService "github.com/sanctumapp/sanctum/internal/envelope/service"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
	"github.com/sanctumapp/sanctum/internal/recovery"
	"github.com/sanctumapp/sanctum/internal/session"
	"github.com/sanctumapp/sanctum/internal/validation"
)

// lifecycleUseCase implements LifecycleUseCase.
type lifecycleUseCase struct {
	keyRecordRepo KeyRecordRepository
	wrapper       envelopeService.KeyWrapper
	keyring       *session.Keyring
}

// NewLifecycleUseCase creates a LifecycleUseCase.
func NewLifecycleUseCase(
	keyRecordRepo KeyRecordRepository,
	wrapper envelopeService.KeyWrapper,
	keyring *session.Keyring,
) LifecycleUseCase {
	return &lifecycleUseCase{
		keyRecordRepo: keyRecordRepo,
		wrapper:       wrapper,
		keyring:       keyring,
	}
}

// Setup provisions envelope keys for a user that has none.
func (u *lifecycleUseCase) Setup(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (*SetupResult, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	// Refuse to overwrite an existing record: a second setup would orphan
	// every item encrypted under the current DEK.
	existing, err := u.keyRecordRepo.Get(ctx, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, envelopeDomain.ErrKeyRecordExists
	}

	dek, err := u.wrapper.GenerateDEK()
	if err != nil {
		return nil, err
	}

	phrase, err := recovery.Generate()
	if err != nil {
		return nil, err
	}

	record, err := u.buildRecord(userID, dek, password, phrase, envelopeDomain.StateUpgraded)
	if err != nil {
		return nil, err
	}

	if err := u.keyRecordRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	u.keyring.Put(userID, session.Keys{DEK: dek})

	return &SetupResult{
		Record:         record,
		RecoveryPhrase: phrase,
		DEK:            dek,
	}, nil
}

// Unlock recovers the DEK with the password and caches it for the session.
func (u *lifecycleUseCase) Unlock(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (cryptoDomain.KeyHandle, error) {
	record, err := u.keyRecordRepo.Get(ctx, userID)
	if err != nil {
		return cryptoDomain.KeyHandle{}, err
	}

	dek, err := u.wrapper.UnwrapWithPassword(record.PasswordWrap, password)
	if err != nil {
		return cryptoDomain.KeyHandle{}, err
	}

	u.cacheDEK(userID, dek)
	return dek, nil
}

// ChangePassword re-wraps the DEK under a new password KEK.
func (u *lifecycleUseCase) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	oldPassword, newPassword string,
) (*envelopeDomain.KeyRecord, error) {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	record, err := u.keyRecordRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Changing the password while items remain on the legacy scheme would
	// strand them: the legacy key is derived from the password at login, and
	// after the change it could never be derived again.
	if record.MigrationState != envelopeDomain.StateUpgraded {
		return nil, envelopeDomain.ErrMigrationIncomplete
	}

	// Authenticate the old password by unwrapping the DEK with it.
	dek, err := u.wrapper.UnwrapWithPassword(record.PasswordWrap, oldPassword)
	if err != nil {
		return nil, err
	}

	// Recover the stored phrase before the password wrap is replaced; it must
	// be re-encrypted under the new KEK in the same write.
	var phrase string
	if len(record.EncryptedRecoveryPhrase) > 0 {
		phrase, err = u.wrapper.DecryptRecoveryPhrase(record, oldPassword)
		if err != nil {
			dek.Destroy()
			return nil, err
		}
	}

	if err := u.rewrapPassword(record, dek, newPassword, phrase); err != nil {
		dek.Destroy()
		return nil, err
	}

	if err := u.keyRecordRepo.Update(ctx, record); err != nil {
		dek.Destroy()
		return nil, err
	}

	u.cacheDEK(userID, dek)
	return record, nil
}

// RestoreWithRecovery resets the password using the recovery phrase.
func (u *lifecycleUseCase) RestoreWithRecovery(
	ctx context.Context,
	userID uuid.UUID,
	recoveryPhrase, newPassword string,
) (*envelopeDomain.KeyRecord, error) {
	if err := validation.ValidateRecoveryPhraseInput(recoveryPhrase); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	record, err := u.keyRecordRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !record.HasRecovery() {
		return nil, envelopeDomain.ErrRecoveryUnavailable
	}
	// Same hazard as ChangePassword: a reset mid-migration leaves the skipped
	// legacy items without any password that can derive their key.
	if record.MigrationState != envelopeDomain.StateUpgraded {
		return nil, envelopeDomain.ErrMigrationIncomplete
	}

	dek, err := u.wrapper.UnwrapWithRecoveryPhrase(*record.RecoveryWrap, recoveryPhrase)
	if err != nil {
		return nil, err
	}

	// Store the normalized form so redisplay shows the canonical phrase.
	phrase := recovery.Normalize(recoveryPhrase)
	if err := u.rewrapPassword(record, dek, newPassword, phrase); err != nil {
		dek.Destroy()
		return nil, err
	}

	if err := u.keyRecordRepo.Update(ctx, record); err != nil {
		dek.Destroy()
		return nil, err
	}

	u.cacheDEK(userID, dek)
	return record, nil
}

// RedisplayRecoveryPhrase decrypts the stored phrase with the password.
func (u *lifecycleUseCase) RedisplayRecoveryPhrase(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (string, error) {
	record, err := u.keyRecordRepo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.wrapper.DecryptRecoveryPhrase(record, password)
}

// Logout clears the user's cached keys.
func (u *lifecycleUseCase) Logout(userID uuid.UUID) {
	u.keyring.Clear(userID)
}

// buildRecord assembles a full key record from a DEK and both secrets. Both
// wrappings and the encrypted phrase are produced before anything is
// persisted.
func (u *lifecycleUseCase) buildRecord(
	userID uuid.UUID,
	dek cryptoDomain.KeyHandle,
	password, phrase string,
	state envelopeDomain.MigrationState,
) (*envelopeDomain.KeyRecord, error) {
	passwordWrap, err := u.wrapper.WrapWithPassword(dek, password)
	if err != nil {
		return nil, err
	}

	recoveryWrap, err := u.wrapper.WrapWithRecoveryPhrase(dek, phrase)
	if err != nil {
		return nil, err
	}

	phraseCiphertext, phraseNonce, err := u.wrapper.EncryptRecoveryPhrase(phrase, password, passwordWrap)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &envelopeDomain.KeyRecord{
		UserID:                  userID,
		Version:                 envelopeDomain.RecordVersion,
		PasswordWrap:            passwordWrap,
		RecoveryWrap:            &recoveryWrap,
		EncryptedRecoveryPhrase: phraseCiphertext,
		RecoveryPhraseNonce:     phraseNonce,
		MigrationState:          state,
		CreatedAt:               now,
		UpdatedAt:               now,
	}, nil
}

// rewrapPassword replaces the password wrapping on the record in memory. The
// recovery wrapping is never touched here. The caller persists the record
// only after this succeeds, so a derivation failure leaves the stored record
// valid.
func (u *lifecycleUseCase) rewrapPassword(
	record *envelopeDomain.KeyRecord,
	dek cryptoDomain.KeyHandle,
	newPassword, phrase string,
) error {
	newWrap, err := u.wrapper.WrapWithPassword(dek, newPassword)
	if err != nil {
		return err
	}

	var phraseCiphertext, phraseNonce []byte
	if phrase != "" {
		phraseCiphertext, phraseNonce, err = u.wrapper.EncryptRecoveryPhrase(phrase, newPassword, newWrap)
		if err != nil {
			return err
		}
	}

	record.PasswordWrap = newWrap
	record.EncryptedRecoveryPhrase = phraseCiphertext
	record.RecoveryPhraseNonce = phraseNonce
	record.UpdatedAt = time.Now().UTC()
	return nil
}

// cacheDEK stores the DEK in the session keyring, preserving any cached
// legacy key for users still mid-migration.
func (u *lifecycleUseCase) cacheDEK(userID uuid.UUID, dek cryptoDomain.KeyHandle) {
	keys := session.Keys{DEK: dek}
	if existing, ok := u.keyring.Get(userID); ok {
		keys.LegacyKey = existing.LegacyKey
	}
	u.keyring.Put(userID, keys)
}
