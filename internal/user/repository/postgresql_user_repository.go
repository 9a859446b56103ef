// Package repository implements user persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sanctumapp/sanctum/internal/database"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
	userDomain "github.com/sanctumapp/sanctum/internal/user/domain"
)

// PostgreSQLUserRepository implements User persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQL User repository instance.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new user into the PostgreSQL database.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *userDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO users (id, email, password_hash, legacy_salt, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
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
func (p *PostgreSQLUserRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, password_hash, legacy_salt, created_at, updated_at
			  FROM users
			  WHERE id = $1`

	return scanPostgresUser(querier.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (p *PostgreSQLUserRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, password_hash, legacy_salt, created_at, updated_at
			  FROM users
			  WHERE email = $1`

	return scanPostgresUser(querier.QueryRowContext(ctx, query, email))
}

// UpdatePassword replaces the stored login hash for a user.
func (p *PostgreSQLUserRepository) UpdatePassword(
	ctx context.Context,
	id uuid.UUID,
	passwordHash string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE users
			  SET password_hash = $1, updated_at = NOW()
			  WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, passwordHash, id)
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

func scanPostgresUser(row *sql.Row) (*userDomain.User, error) {
	var user userDomain.User
	err := row.Scan(
		&user.ID,
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
	return &user, nil
}
