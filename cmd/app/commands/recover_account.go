package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	envelopeUseCase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunRecoverAccount resets the password using the recovery phrase. The phrase
// proves ownership, so no login is required. The existing recovery phrase
// keeps working afterwards.
func RunRecoverAccount(
	ctx context.Context,
	users userUseCase.UseCase,
	lifecycle envelopeUseCase.LifecycleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	recoveryPhrase string,
	newPassword string,
) error {
	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}

	if _, err := lifecycle.RestoreWithRecovery(ctx, user.ID, recoveryPhrase, newPassword); err != nil {
		return fmt.Errorf("failed to restore with recovery phrase: %w", err)
	}

	if err := users.UpdateLoginPassword(ctx, user.ID, newPassword); err != nil {
		return fmt.Errorf("key re-wrapped but login password update failed, rerun to repair: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Password reset. The recovery phrase is unchanged.")

	logger.Info("account recovered", slog.String("user_id", user.ID.String()))
	return nil
}
