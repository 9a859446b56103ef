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

	userDomain "github.com/sanctumapp/sanctum/internal/user/domain"
)

var userColumnNames = []string{
	"id", "email", "password_hash", "legacy_salt", "created_at", "updated_at",
}

func testUser() *userDomain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &userDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$...",
		LegacySalt:   []byte("0123456789abcdef"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRows(user *userDomain.User) *sqlmock.Rows {
	return sqlmock.NewRows(userColumnNames).AddRow(
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.LegacySalt,
		user.CreatedAt,
		user.UpdatedAt,
	)
}

func newMockRepo(t *testing.T) (*PostgreSQLUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgreSQLUserRepository(db), mock
}

func TestPostgreSQLUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser()

		mock.ExpectExec("INSERT INTO users").
			WithArgs(
				user.ID,
				user.Email,
				user.PasswordHash,
				user.LegacySalt,
				user.CreatedAt,
				user.UpdatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser()

		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, userDomain.ErrEmailTaken)
	})
}

func TestPostgreSQLUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser()

		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs(user.Email).
			WillReturnRows(userRows(user))

		got, err := repo.GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
		assert.Equal(t, user.LegacySalt, got.LegacySalt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(userColumnNames))

		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
	})
}

func TestPostgreSQLUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	user := testUser()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(user.ID).
		WillReturnRows(userRows(user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
}

func TestPostgreSQLUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser()

		mock.ExpectExec("UPDATE users").
			WithArgs("new-hash", user.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE users").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePassword(ctx, uuid.Must(uuid.NewV7()), "new-hash")
		assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
	})
}
