package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	envelopeUseCase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	migrationDomain "github.com/sanctumapp/sanctum/internal/migration/domain"
	userDomain "github.com/sanctumapp/sanctum/internal/user/domain"
	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeUserUseCase implements userUseCase.UseCase with overridable funcs.
type fakeUserUseCase struct {
	registerFunc       func(ctx context.Context, input userUseCase.RegisterUserInput) (*userDomain.User, error)
	loginFunc          func(ctx context.Context, email, password string) (*userDomain.User, error)
	seedFunc           func(ctx context.Context, userID uuid.UUID, password string, plaintexts [][]byte) error
	updatePasswordFunc func(ctx context.Context, userID uuid.UUID, newPassword string) error
	getByEmailFunc     func(ctx context.Context, email string) (*userDomain.User, error)
}

func (f *fakeUserUseCase) RegisterUser(
	ctx context.Context,
	input userUseCase.RegisterUserInput,
) (*userDomain.User, error) {
	return f.registerFunc(ctx, input)
}

func (f *fakeUserUseCase) Login(ctx context.Context, email, password string) (*userDomain.User, error) {
	return f.loginFunc(ctx, email, password)
}

func (f *fakeUserUseCase) SeedLegacyContent(
	ctx context.Context,
	userID uuid.UUID,
	password string,
	plaintexts [][]byte,
) error {
	return f.seedFunc(ctx, userID, password, plaintexts)
}

func (f *fakeUserUseCase) UpdateLoginPassword(
	ctx context.Context,
	userID uuid.UUID,
	newPassword string,
) error {
	return f.updatePasswordFunc(ctx, userID, newPassword)
}

func (f *fakeUserUseCase) GetUserByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	return f.getByEmailFunc(ctx, email)
}

func (f *fakeUserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	return &userDomain.User{ID: id}, nil
}

// fakeLifecycle implements envelopeUseCase.LifecycleUseCase with overridable
// funcs.
type fakeLifecycle struct {
	setupFunc          func(ctx context.Context, userID uuid.UUID, password string) (*envelopeUseCase.SetupResult, error)
	unlockFunc         func(ctx context.Context, userID uuid.UUID, password string) (cryptoDomain.KeyHandle, error)
	changePasswordFunc func(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (*envelopeDomain.KeyRecord, error)
	restoreFunc        func(ctx context.Context, userID uuid.UUID, recoveryPhrase, newPassword string) (*envelopeDomain.KeyRecord, error)
	redisplayFunc      func(ctx context.Context, userID uuid.UUID, password string) (string, error)
}

func (f *fakeLifecycle) Setup(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (*envelopeUseCase.SetupResult, error) {
	return f.setupFunc(ctx, userID, password)
}

func (f *fakeLifecycle) Unlock(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (cryptoDomain.KeyHandle, error) {
	return f.unlockFunc(ctx, userID, password)
}

func (f *fakeLifecycle) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	oldPassword, newPassword string,
) (*envelopeDomain.KeyRecord, error) {
	return f.changePasswordFunc(ctx, userID, oldPassword, newPassword)
}

func (f *fakeLifecycle) RestoreWithRecovery(
	ctx context.Context,
	userID uuid.UUID,
	recoveryPhrase, newPassword string,
) (*envelopeDomain.KeyRecord, error) {
	return f.restoreFunc(ctx, userID, recoveryPhrase, newPassword)
}

func (f *fakeLifecycle) RedisplayRecoveryPhrase(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (string, error) {
	return f.redisplayFunc(ctx, userID, password)
}

func (f *fakeLifecycle) Logout(_ uuid.UUID) {}

// fakeMigration implements migrationUseCase.MigrationUseCase.
type fakeMigration struct {
	performFunc func(ctx context.Context, userID uuid.UUID, password string) (*migrationDomain.Report, error)
}

func (f *fakeMigration) PerformMigration(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (*migrationDomain.Report, error) {
	return f.performFunc(ctx, userID, password)
}
