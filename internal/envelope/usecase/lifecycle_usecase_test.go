package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	cryptoService "github.com/sanctumapp/sanctum/internal/crypto/service"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	envelopeService "github.com/sanctumapp/sanctum/internal/envelope/service"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
	"github.com/sanctumapp/sanctum/internal/session"
)

// fakeKeyRecordRepo is an in-memory KeyRecordRepository.
type fakeKeyRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*envelopeDomain.KeyRecord

	failUpdate bool
	updates    int
}

func newFakeKeyRecordRepo() *fakeKeyRecordRepo {
	return &fakeKeyRecordRepo{records: make(map[uuid.UUID]*envelopeDomain.KeyRecord)}
}

func (f *fakeKeyRecordRepo) Create(_ context.Context, record *envelopeDomain.KeyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[record.UserID]; ok {
		return envelopeDomain.ErrKeyRecordExists
	}
	cp := *record
	f.records[record.UserID] = &cp
	return nil
}

func (f *fakeKeyRecordRepo) Get(_ context.Context, userID uuid.UUID) (*envelopeDomain.KeyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[userID]
	if !ok {
		return nil, envelopeDomain.ErrKeyRecordNotFound
	}
	cp := *record
	return &cp, nil
}

func (f *fakeKeyRecordRepo) Update(_ context.Context, record *envelopeDomain.KeyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates++
	if f.failUpdate {
		return apperrors.New("database unavailable")
	}
	if _, ok := f.records[record.UserID]; !ok {
		return envelopeDomain.ErrKeyRecordNotFound
	}
	cp := *record
	f.records[record.UserID] = &cp
	return nil
}

func (f *fakeKeyRecordRepo) UpdateMigrationState(
	_ context.Context,
	userID uuid.UUID,
	state envelopeDomain.MigrationState,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[userID]
	if !ok {
		return envelopeDomain.ErrKeyRecordNotFound
	}
	record.MigrationState = state
	return nil
}

// testParams keeps Argon2id cheap enough for unit tests.
var testParams = cryptoDomain.KDFParams{Time: 1, MemoryKiB: 64, Threads: 1}

func newTestLifecycle(t *testing.T) (LifecycleUseCase, *fakeKeyRecordRepo, *session.Keyring) {
	t.Helper()

	repo := newFakeKeyRecordRepo()
	keyring := session.NewKeyring()
	wrapper := envelopeService.NewWrapperService(
		cryptoService.NewArgon2Deriver(testParams),
		cryptoService.NewAEADManager(),
		cryptoDomain.AESGCM,
	)
	return NewLifecycleUseCase(repo, wrapper, keyring), repo, keyring
}

func TestLifecycleUseCase_Setup(t *testing.T) {
	ctx := context.Background()

	t.Run("new user gets record, phrase and cached DEK", func(t *testing.T) {
		uc, repo, keyring := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		result, err := uc.Setup(ctx, userID, "correct horse battery")
		require.NoError(t, err)
		require.NotNil(t, result.Record)
		assert.NotEmpty(t, result.RecoveryPhrase)
		assert.Equal(t, envelopeDomain.StateUpgraded, result.Record.MigrationState)
		assert.True(t, result.Record.HasRecovery())
		assert.NotEmpty(t, result.Record.EncryptedRecoveryPhrase)

		stored, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, envelopeDomain.RecordVersion, stored.Version)

		keys, ok := keyring.Get(userID)
		require.True(t, ok)
		assert.True(t, keys.DEK.Equal(result.DEK))
	})

	t.Run("second setup is refused", func(t *testing.T) {
		uc, _, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		_, err := uc.Setup(ctx, userID, "correct horse battery")
		require.NoError(t, err)

		_, err = uc.Setup(ctx, userID, "another password here")
		assert.ErrorIs(t, err, envelopeDomain.ErrKeyRecordExists)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		uc, _, _ := newTestLifecycle(t)

		_, err := uc.Setup(ctx, uuid.Must(uuid.NewV7()), "short")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestLifecycleUseCase_Unlock(t *testing.T) {
	ctx := context.Background()
	uc, _, keyring := newTestLifecycle(t)
	userID := uuid.Must(uuid.NewV7())

	result, err := uc.Setup(ctx, userID, "correct horse battery")
	require.NoError(t, err)

	t.Run("correct password yields the same DEK", func(t *testing.T) {
		keyring.ClearAll()

		dek, err := uc.Unlock(ctx, userID, "correct horse battery")
		require.NoError(t, err)
		assert.Equal(t, result.Record.UserID, userID)

		keys, ok := keyring.Get(userID)
		require.True(t, ok)
		assert.True(t, keys.DEK.Equal(dek))
	})

	t.Run("wrong password fails closed", func(t *testing.T) {
		_, err := uc.Unlock(ctx, userID, "wrong password here")
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthenticationFailed)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.Unlock(ctx, uuid.Must(uuid.NewV7()), "correct horse battery")
		assert.ErrorIs(t, err, envelopeDomain.ErrKeyRecordNotFound)
	})
}

func TestLifecycleUseCase_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("new password unlocks, old does not, recovery survives", func(t *testing.T) {
		uc, repo, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		result, err := uc.Setup(ctx, userID, "old password value")
		require.NoError(t, err)
		before, err := repo.Get(ctx, userID)
		require.NoError(t, err)

		_, err = uc.ChangePassword(ctx, userID, "old password value", "new password value")
		require.NoError(t, err)

		dek, err := uc.Unlock(ctx, userID, "new password value")
		require.NoError(t, err)
		assert.True(t, dek.Equal(result.DEK))

		_, err = uc.Unlock(ctx, userID, "old password value")
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthenticationFailed)

		// The recovery wrapping is byte-for-byte untouched and the stored
		// phrase is redisplayable with the new password.
		after, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, before.RecoveryWrap, after.RecoveryWrap)
		assert.NotEqual(t, before.PasswordWrap.Salt, after.PasswordWrap.Salt)

		phrase, err := uc.RedisplayRecoveryPhrase(ctx, userID, "new password value")
		require.NoError(t, err)
		assert.Equal(t, result.RecoveryPhrase, phrase)
	})

	t.Run("wrong old password leaves record untouched", func(t *testing.T) {
		uc, repo, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		_, err := uc.Setup(ctx, userID, "old password value")
		require.NoError(t, err)
		before, err := repo.Get(ctx, userID)
		require.NoError(t, err)

		_, err = uc.ChangePassword(ctx, userID, "not the password!", "new password value")
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthenticationFailed)
		assert.Equal(t, 0, repo.updates)

		after, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("refused while migration is unfinished", func(t *testing.T) {
		uc, repo, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		_, err := uc.Setup(ctx, userID, "old password value")
		require.NoError(t, err)

		repo.mu.Lock()
		repo.records[userID].MigrationState = envelopeDomain.StateMigrating
		repo.mu.Unlock()

		// Items still on the legacy scheme need the current password to
		// derive their key, so the change must wait for the migration.
		_, err = uc.ChangePassword(ctx, userID, "old password value", "new password value")
		assert.ErrorIs(t, err, envelopeDomain.ErrMigrationIncomplete)
		assert.Equal(t, 0, repo.updates)
	})

	t.Run("persistence failure keeps old password working", func(t *testing.T) {
		uc, repo, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		_, err := uc.Setup(ctx, userID, "old password value")
		require.NoError(t, err)

		repo.failUpdate = true
		_, err = uc.ChangePassword(ctx, userID, "old password value", "new password value")
		require.Error(t, err)

		repo.failUpdate = false
		_, err = uc.Unlock(ctx, userID, "old password value")
		assert.NoError(t, err)
	})
}

func TestLifecycleUseCase_RestoreWithRecovery(t *testing.T) {
	ctx := context.Background()

	t.Run("phrase resets password without rotating it", func(t *testing.T) {
		uc, _, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		result, err := uc.Setup(ctx, userID, "forgotten password")
		require.NoError(t, err)

		_, err = uc.RestoreWithRecovery(ctx, userID, result.RecoveryPhrase, "brand new password")
		require.NoError(t, err)

		dek, err := uc.Unlock(ctx, userID, "brand new password")
		require.NoError(t, err)
		assert.True(t, dek.Equal(result.DEK))

		// Same phrase still works for a second restore.
		_, err = uc.RestoreWithRecovery(ctx, userID, result.RecoveryPhrase, "yet another password")
		assert.NoError(t, err)
	})

	t.Run("phrase casing and spacing are forgiven", func(t *testing.T) {
		uc, _, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		result, err := uc.Setup(ctx, userID, "forgotten password")
		require.NoError(t, err)

		messy := "  " + result.RecoveryPhrase + "  "
		_, err = uc.RestoreWithRecovery(ctx, userID, messy, "brand new password")
		assert.NoError(t, err)
	})

	t.Run("wrong phrase fails closed", func(t *testing.T) {
		uc, _, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		_, err := uc.Setup(ctx, userID, "forgotten password")
		require.NoError(t, err)

		_, err = uc.RestoreWithRecovery(ctx, userID, "wrong words entirely here now ok", "brand new password")
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthenticationFailed)
	})

	t.Run("refused while migration is unfinished", func(t *testing.T) {
		uc, repo, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		result, err := uc.Setup(ctx, userID, "forgotten password")
		require.NoError(t, err)

		repo.mu.Lock()
		repo.records[userID].MigrationState = envelopeDomain.StateMigrating
		repo.mu.Unlock()

		_, err = uc.RestoreWithRecovery(ctx, userID, result.RecoveryPhrase, "brand new password")
		assert.ErrorIs(t, err, envelopeDomain.ErrMigrationIncomplete)
	})

	t.Run("record without recovery wrapping", func(t *testing.T) {
		uc, repo, _ := newTestLifecycle(t)
		userID := uuid.Must(uuid.NewV7())

		_, err := uc.Setup(ctx, userID, "forgotten password")
		require.NoError(t, err)

		repo.mu.Lock()
		repo.records[userID].RecoveryWrap = nil
		repo.mu.Unlock()

		_, err = uc.RestoreWithRecovery(ctx, userID, "some phrase words go here x", "brand new password")
		assert.ErrorIs(t, err, envelopeDomain.ErrRecoveryUnavailable)
	})

	t.Run("empty phrase input", func(t *testing.T) {
		uc, _, _ := newTestLifecycle(t)

		_, err := uc.RestoreWithRecovery(ctx, uuid.Must(uuid.NewV7()), "   ", "brand new password")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestLifecycleUseCase_RedisplayRecoveryPhrase(t *testing.T) {
	ctx := context.Background()
	uc, repo, _ := newTestLifecycle(t)
	userID := uuid.Must(uuid.NewV7())

	result, err := uc.Setup(ctx, userID, "correct horse battery")
	require.NoError(t, err)

	t.Run("with correct password", func(t *testing.T) {
		phrase, err := uc.RedisplayRecoveryPhrase(ctx, userID, "correct horse battery")
		require.NoError(t, err)
		assert.Equal(t, result.RecoveryPhrase, phrase)
	})

	t.Run("with wrong password", func(t *testing.T) {
		_, err := uc.RedisplayRecoveryPhrase(ctx, userID, "wrong password here")
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthenticationFailed)
	})

	t.Run("no stored phrase", func(t *testing.T) {
		repo.mu.Lock()
		repo.records[userID].EncryptedRecoveryPhrase = nil
		repo.mu.Unlock()

		_, err := uc.RedisplayRecoveryPhrase(ctx, userID, "correct horse battery")
		assert.ErrorIs(t, err, envelopeDomain.ErrRecoveryUnavailable)
	})
}

func TestLifecycleUseCase_Logout(t *testing.T) {
	ctx := context.Background()
	uc, _, keyring := newTestLifecycle(t)
	userID := uuid.Must(uuid.NewV7())

	_, err := uc.Setup(ctx, userID, "correct horse battery")
	require.NoError(t, err)
	_, ok := keyring.Get(userID)
	require.True(t, ok)

	uc.Logout(userID)

	_, ok = keyring.Get(userID)
	assert.False(t, ok)
}
