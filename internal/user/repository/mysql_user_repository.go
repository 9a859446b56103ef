package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sanctumapp/sanctum/internal/database"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
	userDomain "github.com/sanctumapp/sanctum/internal/user/domain"
)

// MySQLUserRepository implements User persistence for MySQL.
//
// UUIDs are stored as BINARY(16), so ids are marshaled before every query.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL User repository instance.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user into the MySQL database.
func (m *MySQLUserRepository) Create(ctx context.Context, user *userDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO users (id, email, password_hash, legacy_salt, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		user.Email,
		user.PasswordHash,
		user.LegacySalt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return userDomain.ErrEmailTaken
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by id.
func (m *MySQLUserRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, password_hash, legacy_salt, created_at, updated_at
			  FROM users
			  WHERE id = ?`

	rawID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	return scanMySQLUser(querier.QueryRowContext(ctx, query, rawID))
}

// GetByEmail retrieves a user by email.
func (m *MySQLUserRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, password_hash, legacy_salt, created_at, updated_at
			  FROM users
			  WHERE email = ?`

	return scanMySQLUser(querier.QueryRowContext(ctx, query, email))
}

// UpdatePassword replaces the stored login hash for a user.
func (m *MySQLUserRepository) UpdatePassword(
	ctx context.Context,
	id uuid.UUID,
	passwordHash string,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE users
			  SET password_hash = ?, updated_at = UTC_TIMESTAMP()
			  WHERE id = ?`

	rawID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	result, err := querier.ExecContext(ctx, query, passwordHash, rawID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user password")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update user password")
	}
	if rows == 0 {
		return userDomain.ErrUserNotFound
	}
	return nil
}

func scanMySQLUser(row *sql.Row) (*userDomain.User, error) {
	var user userDomain.User
	var rawID []byte
	err := row.Scan(
		&rawID,
		&user.Email,
		&user.PasswordHash,
		&user.LegacySalt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}
	if err := user.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	return &user, nil
}
