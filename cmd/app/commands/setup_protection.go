package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	envelopeUseCase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunSetupProtection generates a data key and recovery phrase for an account
// that has no key record yet, and prints the phrase exactly once.
//
// Requirements: Database must be migrated and the account must exist.
func RunSetupProtection(
	ctx context.Context,
	users userUseCase.UseCase,
	lifecycle envelopeUseCase.LifecycleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	password string,
) error {
	user, err := users.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}

	result, err := lifecycle.Setup(ctx, user.ID, password)
	if err != nil {
		return fmt.Errorf("failed to set up key protection: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Key protection enabled.")
	printRecoveryPhrase(writer, result.RecoveryPhrase)

	logger.Info("key protection set up", slog.String("user_id", user.ID.String()))
	return nil
}
