package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	envelopeUseCase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunShowRecoveryPhrase decrypts the stored recovery phrase with the password
// and displays it.
func RunShowRecoveryPhrase(
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

	phrase, err := lifecycle.RedisplayRecoveryPhrase(ctx, user.ID, password)
	if err != nil {
		return fmt.Errorf("failed to decrypt recovery phrase: %w", err)
	}

	printRecoveryPhrase(writer, phrase)

	logger.Info("recovery phrase redisplayed", slog.String("user_id", user.ID.String()))
	return nil
}
