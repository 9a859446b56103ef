package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sanctumapp/sanctum/internal/database"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
)

// MySQLKeyRecordRepository implements KeyRecord persistence for MySQL.
//
// UUIDs are stored as BINARY(16), so ids are marshaled before every query.
type MySQLKeyRecordRepository struct {
	db *sql.DB
}

// NewMySQLKeyRecordRepository creates a new MySQL KeyRecord repository instance.
func NewMySQLKeyRecordRepository(db *sql.DB) *MySQLKeyRecordRepository {
	return &MySQLKeyRecordRepository{db: db}
}

const mysqlKeyRecordColumns = `user_id, version,
	password_algorithm, password_ciphertext, password_nonce, password_salt,
	password_kdf_time, password_kdf_memory_kib, password_kdf_threads,
	recovery_algorithm, recovery_ciphertext, recovery_nonce, recovery_salt,
	recovery_kdf_time, recovery_kdf_memory_kib, recovery_kdf_threads,
	recovery_phrase_ciphertext, recovery_phrase_nonce,
	migration_state, created_at, updated_at`

// Create inserts a new key record into the MySQL database.
func (m *MySQLKeyRecordRepository) Create(
	ctx context.Context,
	record *envelopeDomain.KeyRecord,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO e2ee_key_records (` + mysqlKeyRecordColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	userID, err := record.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	rw := recoveryWrapColumns(record.RecoveryWrap)
	_, err = querier.ExecContext(
		ctx,
		query,
		userID,
		record.Version,
		record.PasswordWrap.Algorithm,
		record.PasswordWrap.Ciphertext,
		record.PasswordWrap.Nonce,
		record.PasswordWrap.Salt,
		record.PasswordWrap.Params.Time,
		record.PasswordWrap.Params.MemoryKiB,
		record.PasswordWrap.Params.Threads,
		rw.algorithm,
		rw.ciphertext,
		rw.nonce,
		rw.salt,
		rw.kdfTime,
		rw.kdfMemoryKiB,
		rw.kdfThreads,
		record.EncryptedRecoveryPhrase,
		record.RecoveryPhraseNonce,
		record.MigrationState,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return envelopeDomain.ErrKeyRecordExists
		}
		return apperrors.Wrap(err, "failed to create key record")
	}
	return nil
}

// Get retrieves the key record for a user.
func (m *MySQLKeyRecordRepository) Get(
	ctx context.Context,
	userID uuid.UUID,
) (*envelopeDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlKeyRecordColumns + `
			  FROM e2ee_key_records
			  WHERE user_id = ?`

	id, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	var record envelopeDomain.KeyRecord
	var rawUserID []byte
	var rw scannedRecoveryWrap
	err = querier.QueryRowContext(ctx, query, id).Scan(
		&rawUserID,
		&record.Version,
		&record.PasswordWrap.Algorithm,
		&record.PasswordWrap.Ciphertext,
		&record.PasswordWrap.Nonce,
		&record.PasswordWrap.Salt,
		&record.PasswordWrap.Params.Time,
		&record.PasswordWrap.Params.MemoryKiB,
		&record.PasswordWrap.Params.Threads,
		&rw.algorithm,
		&rw.ciphertext,
		&rw.nonce,
		&rw.salt,
		&rw.kdfTime,
		&rw.kdfMemoryKiB,
		&rw.kdfThreads,
		&record.EncryptedRecoveryPhrase,
		&record.RecoveryPhraseNonce,
		&record.MigrationState,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, envelopeDomain.ErrKeyRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key record")
	}

	if err := record.UserID.UnmarshalBinary(rawUserID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	record.RecoveryWrap = rw.toWrappedKey()
	return &record, nil
}

// Update replaces the mutable fields of an existing key record.
func (m *MySQLKeyRecordRepository) Update(
	ctx context.Context,
	record *envelopeDomain.KeyRecord,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE e2ee_key_records
			  SET version = ?,
				  password_algorithm = ?, password_ciphertext = ?, password_nonce = ?, password_salt = ?,
				  password_kdf_time = ?, password_kdf_memory_kib = ?, password_kdf_threads = ?,
				  recovery_algorithm = ?, recovery_ciphertext = ?, recovery_nonce = ?, recovery_salt = ?,
				  recovery_kdf_time = ?, recovery_kdf_memory_kib = ?, recovery_kdf_threads = ?,
				  recovery_phrase_ciphertext = ?, recovery_phrase_nonce = ?,
				  migration_state = ?, updated_at = ?
			  WHERE user_id = ?`

	userID, err := record.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	rw := recoveryWrapColumns(record.RecoveryWrap)
	result, err := querier.ExecContext(
		ctx,
		query,
		record.Version,
		record.PasswordWrap.Algorithm,
		record.PasswordWrap.Ciphertext,
		record.PasswordWrap.Nonce,
		record.PasswordWrap.Salt,
		record.PasswordWrap.Params.Time,
		record.PasswordWrap.Params.MemoryKiB,
		record.PasswordWrap.Params.Threads,
		rw.algorithm,
		rw.ciphertext,
		rw.nonce,
		rw.salt,
		rw.kdfTime,
		rw.kdfMemoryKiB,
		rw.kdfThreads,
		record.EncryptedRecoveryPhrase,
		record.RecoveryPhraseNonce,
		record.MigrationState,
		record.UpdatedAt,
		userID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update key record")
	}
	return requireRowAffected(result, "failed to update key record")
}

// UpdateMigrationState sets only the migration state for a user.
func (m *MySQLKeyRecordRepository) UpdateMigrationState(
	ctx context.Context,
	userID uuid.UUID,
	state envelopeDomain.MigrationState,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE e2ee_key_records
			  SET migration_state = ?, updated_at = UTC_TIMESTAMP()
			  WHERE user_id = ?`

	id, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	result, err := querier.ExecContext(ctx, query, state, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update migration state")
	}
	return requireRowAffected(result, "failed to update migration state")
}
