package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
)

var keyRecordColumnNames = []string{
	"user_id", "version",
	"password_algorithm", "password_ciphertext", "password_nonce", "password_salt",
	"password_kdf_time", "password_kdf_memory_kib", "password_kdf_threads",
	"recovery_algorithm", "recovery_ciphertext", "recovery_nonce", "recovery_salt",
	"recovery_kdf_time", "recovery_kdf_memory_kib", "recovery_kdf_threads",
	"recovery_phrase_ciphertext", "recovery_phrase_nonce",
	"migration_state", "created_at", "updated_at",
}

func testKeyRecord(userID uuid.UUID) *envelopeDomain.KeyRecord {
	now := time.Now().UTC()
	params := cryptoDomain.KDFParams{Time: 1, MemoryKiB: 65536, Threads: 4}
	return &envelopeDomain.KeyRecord{
		UserID:  userID,
		Version: envelopeDomain.RecordVersion,
		PasswordWrap: envelopeDomain.WrappedKey{
			Algorithm:  cryptoDomain.AESGCM,
			Ciphertext: []byte("password-wrapped-dek"),
			Nonce:      []byte("password-nonce"),
			Salt:       []byte("password-salt-16"),
			Params:     params,
		},
		RecoveryWrap: &envelopeDomain.WrappedKey{
			Algorithm:  cryptoDomain.AESGCM,
			Ciphertext: []byte("recovery-wrapped-dek"),
			Nonce:      []byte("recovery-nonce"),
			Salt:       []byte("recovery-salt-16"),
			Params:     params,
		},
		EncryptedRecoveryPhrase: []byte("encrypted-phrase"),
		RecoveryPhraseNonce:     []byte("phrase-nonce"),
		MigrationState:          envelopeDomain.StateUpgraded,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

func keyRecordRows(record *envelopeDomain.KeyRecord) *sqlmock.Rows {
	return sqlmock.NewRows(keyRecordColumnNames).AddRow(
		record.UserID.String(),
		record.Version,
		string(record.PasswordWrap.Algorithm),
		record.PasswordWrap.Ciphertext,
		record.PasswordWrap.Nonce,
		record.PasswordWrap.Salt,
		record.PasswordWrap.Params.Time,
		record.PasswordWrap.Params.MemoryKiB,
		record.PasswordWrap.Params.Threads,
		string(record.RecoveryWrap.Algorithm),
		record.RecoveryWrap.Ciphertext,
		record.RecoveryWrap.Nonce,
		record.RecoveryWrap.Salt,
		record.RecoveryWrap.Params.Time,
		record.RecoveryWrap.Params.MemoryKiB,
		record.RecoveryWrap.Params.Threads,
		record.EncryptedRecoveryPhrase,
		record.RecoveryPhraseNonce,
		string(record.MigrationState),
		record.CreatedAt,
		record.UpdatedAt,
	)
}

func TestPostgreSQLKeyRecordRepository_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		record := testKeyRecord(uuid.Must(uuid.NewV7()))
		mock.ExpectExec("INSERT INTO e2ee_key_records").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLKeyRecordRepository(db)
		err = repo.Create(context.Background(), record)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate user maps to conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("INSERT INTO e2ee_key_records").
			WillReturnError(&pq.Error{Code: "23505"})

		repo := NewPostgreSQLKeyRecordRepository(db)
		err = repo.Create(context.Background(), testKeyRecord(uuid.Must(uuid.NewV7())))
		assert.ErrorIs(t, err, envelopeDomain.ErrKeyRecordExists)
	})
}

func TestPostgreSQLKeyRecordRepository_Get(t *testing.T) {
	t.Run("round trips all fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		userID := uuid.Must(uuid.NewV7())
		record := testKeyRecord(userID)
		mock.ExpectQuery("SELECT (.+) FROM e2ee_key_records").
			WithArgs(userID).
			WillReturnRows(keyRecordRows(record))

		repo := NewPostgreSQLKeyRecordRepository(db)
		got, err := repo.Get(context.Background(), userID)
		require.NoError(t, err)

		assert.Equal(t, record.UserID, got.UserID)
		assert.Equal(t, record.Version, got.Version)
		assert.Equal(t, record.PasswordWrap, got.PasswordWrap)
		require.NotNil(t, got.RecoveryWrap)
		assert.Equal(t, *record.RecoveryWrap, *got.RecoveryWrap)
		assert.Equal(t, record.EncryptedRecoveryPhrase, got.EncryptedRecoveryPhrase)
		assert.Equal(t, record.RecoveryPhraseNonce, got.RecoveryPhraseNonce)
		assert.Equal(t, record.MigrationState, got.MigrationState)
	})

	t.Run("null recovery wrap", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		userID := uuid.Must(uuid.NewV7())
		record := testKeyRecord(userID)
		rows := sqlmock.NewRows(keyRecordColumnNames).AddRow(
			userID.String(),
			record.Version,
			string(record.PasswordWrap.Algorithm),
			record.PasswordWrap.Ciphertext,
			record.PasswordWrap.Nonce,
			record.PasswordWrap.Salt,
			record.PasswordWrap.Params.Time,
			record.PasswordWrap.Params.MemoryKiB,
			record.PasswordWrap.Params.Threads,
			nil, nil, nil, nil, nil, nil, nil,
			record.EncryptedRecoveryPhrase,
			record.RecoveryPhraseNonce,
			string(envelopeDomain.StateMigrating),
			record.CreatedAt,
			record.UpdatedAt,
		)
		mock.ExpectQuery("SELECT (.+) FROM e2ee_key_records").
			WithArgs(userID).
			WillReturnRows(rows)

		repo := NewPostgreSQLKeyRecordRepository(db)
		got, err := repo.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.Nil(t, got.RecoveryWrap)
		assert.False(t, got.HasRecovery())
		assert.Equal(t, envelopeDomain.StateMigrating, got.MigrationState)
	})

	t.Run("missing record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		userID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery("SELECT (.+) FROM e2ee_key_records").
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(keyRecordColumnNames))

		repo := NewPostgreSQLKeyRecordRepository(db)
		_, err = repo.Get(context.Background(), userID)
		assert.ErrorIs(t, err, envelopeDomain.ErrKeyRecordNotFound)
	})
}

func TestPostgreSQLKeyRecordRepository_Update(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE e2ee_key_records").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLKeyRecordRepository(db)
		err = repo.Update(context.Background(), testKeyRecord(uuid.Must(uuid.NewV7())))
		assert.NoError(t, err)
	})

	t.Run("zero rows affected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE e2ee_key_records").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPostgreSQLKeyRecordRepository(db)
		err = repo.Update(context.Background(), testKeyRecord(uuid.Must(uuid.NewV7())))
		assert.ErrorIs(t, err, envelopeDomain.ErrKeyRecordNotFound)
	})
}

func TestPostgreSQLKeyRecordRepository_UpdateMigrationState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := uuid.Must(uuid.NewV7())
	mock.ExpectExec("UPDATE e2ee_key_records").
		WithArgs(envelopeDomain.StateUpgraded, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgreSQLKeyRecordRepository(db)
	err = repo.UpdateMigrationState(context.Background(), userID, envelopeDomain.StateUpgraded)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
