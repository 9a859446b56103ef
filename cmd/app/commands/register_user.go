package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunRegisterUser creates a new account and prints the user id.
//
// Requirements: Database must be migrated and accessible.
func RunRegisterUser(
	ctx context.Context,
	users userUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	password string,
	format string,
) error {
	logger.Info("registering user", slog.String("email", email))

	user, err := users.RegisterUser(ctx, userUseCase.RegisterUserInput{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	if format == "json" {
		result := map[string]string{
			"user_id": user.ID.String(),
			"email":   user.Email,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintln(writer, "User created successfully!")
		_, _ = fmt.Fprintf(writer, "User ID: %s\n", user.ID.String())
	}

	logger.Info("user registered successfully", slog.String("user_id", user.ID.String()))
	return nil
}
