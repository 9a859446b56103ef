package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	envelopeUseCase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunChangePassword re-wraps the data key under the new password and then
// updates the login hash. The key wrap is updated first: if the login hash
// update fails the old password still verifies but no longer unwraps the key,
// and rerunning the command with the same arguments repairs the mismatch.
//
// Requirements: the account must already be on envelope encryption with the
// migration finished; the lifecycle layer refuses the change otherwise. For a
// legacy or mid-migration account, run migrate-user to completion first.
func RunChangePassword(
	ctx context.Context,
	users userUseCase.UseCase,
	lifecycle envelopeUseCase.LifecycleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	oldPassword string,
	newPassword string,
) error {
	user, err := users.Login(ctx, email, oldPassword)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}

	if _, err := lifecycle.ChangePassword(ctx, user.ID, oldPassword, newPassword); err != nil {
		return fmt.Errorf("failed to change key password: %w", err)
	}

	if err := users.UpdateLoginPassword(ctx, user.ID, newPassword); err != nil {
		return fmt.Errorf("key re-wrapped but login password update failed, rerun to repair: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Password changed. The recovery phrase is unchanged.")

	logger.Info("password changed", slog.String("user_id", user.ID.String()))
	return nil
}
