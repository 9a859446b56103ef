// Package repository implements key record persistence for PostgreSQL and
// MySQL. Each wrapping is stored as its own column group (algorithm,
// ciphertext, nonce, salt, KDF costs) so unwrapping never depends on the
// current configuration.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	"github.com/sanctumapp/sanctum/internal/database"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
)

// PostgreSQLKeyRecordRepository implements KeyRecord persistence for PostgreSQL.
type PostgreSQLKeyRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyRecordRepository creates a new PostgreSQL KeyRecord repository instance.
func NewPostgreSQLKeyRecordRepository(db *sql.DB) *PostgreSQLKeyRecordRepository {
	return &PostgreSQLKeyRecordRepository{db: db}
}

const pgKeyRecordColumns = `user_id, version,
	password_algorithm, password_ciphertext, password_nonce, password_salt,
	password_kdf_time, password_kdf_memory_kib, password_kdf_threads,
	recovery_algorithm, recovery_ciphertext, recovery_nonce, recovery_salt,
	recovery_kdf_time, recovery_kdf_memory_kib, recovery_kdf_threads,
	recovery_phrase_ciphertext, recovery_phrase_nonce,
	migration_state, created_at, updated_at`

// Create inserts a new key record into the PostgreSQL database.
func (p *PostgreSQLKeyRecordRepository) Create(
	ctx context.Context,
	record *envelopeDomain.KeyRecord,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO e2ee_key_records (` + pgKeyRecordColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	rw := recoveryWrapColumns(record.RecoveryWrap)
	_, err := querier.ExecContext(
		ctx,
		query,
		record.UserID,
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
func (p *PostgreSQLKeyRecordRepository) Get(
	ctx context.Context,
	userID uuid.UUID,
) (*envelopeDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgKeyRecordColumns + `
			  FROM e2ee_key_records
			  WHERE user_id = $1`

	var record envelopeDomain.KeyRecord
	var rw scannedRecoveryWrap
	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&record.UserID,
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

	record.RecoveryWrap = rw.toWrappedKey()
	return &record, nil
}

// Update replaces the mutable fields of an existing key record.
func (p *PostgreSQLKeyRecordRepository) Update(
	ctx context.Context,
	record *envelopeDomain.KeyRecord,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE e2ee_key_records
			  SET version = $1,
				  password_algorithm = $2, password_ciphertext = $3, password_nonce = $4, password_salt = $5,
				  password_kdf_time = $6, password_kdf_memory_kib = $7, password_kdf_threads = $8,
				  recovery_algorithm = $9, recovery_ciphertext = $10, recovery_nonce = $11, recovery_salt = $12,
				  recovery_kdf_time = $13, recovery_kdf_memory_kib = $14, recovery_kdf_threads = $15,
				  recovery_phrase_ciphertext = $16, recovery_phrase_nonce = $17,
				  migration_state = $18, updated_at = $19
			  WHERE user_id = $20`

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
		record.UserID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update key record")
	}
	return requireRowAffected(result, "failed to update key record")
}

// UpdateMigrationState sets only the migration state for a user.
func (p *PostgreSQLKeyRecordRepository) UpdateMigrationState(
	ctx context.Context,
	userID uuid.UUID,
	state envelopeDomain.MigrationState,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE e2ee_key_records
			  SET migration_state = $1, updated_at = NOW()
			  WHERE user_id = $2`

	result, err := querier.ExecContext(ctx, query, state, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update migration state")
	}
	return requireRowAffected(result, "failed to update migration state")
}

// scannedRecoveryWrap holds the nullable recovery wrap column group.
type scannedRecoveryWrap struct {
	algorithm    sql.NullString
	ciphertext   []byte
	nonce        []byte
	salt         []byte
	kdfTime      sql.NullInt64
	kdfMemoryKiB sql.NullInt64
	kdfThreads   sql.NullInt64
}

func (s *scannedRecoveryWrap) toWrappedKey() *envelopeDomain.WrappedKey {
	if !s.algorithm.Valid {
		return nil
	}
	return &envelopeDomain.WrappedKey{
		Algorithm:  cryptoDomain.Algorithm(s.algorithm.String),
		Ciphertext: s.ciphertext,
		Nonce:      s.nonce,
		Salt:       s.salt,
		Params: cryptoDomain.KDFParams{
			Time:      uint32(s.kdfTime.Int64),
			MemoryKiB: uint32(s.kdfMemoryKiB.Int64),
			Threads:   uint8(s.kdfThreads.Int64),
		},
	}
}

// recoveryWrapColumns flattens an optional recovery wrap into its nullable
// column values for inserts and updates.
func recoveryWrapColumns(wrap *envelopeDomain.WrappedKey) scannedRecoveryWrap {
	if wrap == nil {
		return scannedRecoveryWrap{}
	}
	return scannedRecoveryWrap{
		algorithm:    sql.NullString{String: string(wrap.Algorithm), Valid: true},
		ciphertext:   wrap.Ciphertext,
		nonce:        wrap.Nonce,
		salt:         wrap.Salt,
		kdfTime:      sql.NullInt64{Int64: int64(wrap.Params.Time), Valid: true},
		kdfMemoryKiB: sql.NullInt64{Int64: int64(wrap.Params.MemoryKiB), Valid: true},
		kdfThreads:   sql.NullInt64{Int64: int64(wrap.Params.Threads), Valid: true},
	}
}

// requireRowAffected maps a zero-row update to ErrKeyRecordNotFound.
func requireRowAffected(result sql.Result, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	if affected == 0 {
		return envelopeDomain.ErrKeyRecordNotFound
	}
	return nil
}
