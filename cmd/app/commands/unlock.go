package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	envelopeUseCase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunUnlock checks that the password unwraps the account data key. Useful as
// a diagnostic after a restore or a suspected record corruption.
func RunUnlock(
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

	if _, err := lifecycle.Unlock(ctx, user.ID, password); err != nil {
		return fmt.Errorf("failed to unlock data key: %w", err)
	}
	lifecycle.Logout(user.ID)

	_, _ = fmt.Fprintln(writer, "Data key unwrapped successfully.")

	logger.Info("data key unlock verified", slog.String("user_id", user.ID.String()))
	return nil
}
