package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunSeedContent stores items on the legacy encryption scheme, one plaintext
// per input line. Blank lines are skipped. All items are written in a single
// transaction.
//
// Requirements: Database must be migrated and the account must exist.
func RunSeedContent(
	ctx context.Context,
	users userUseCase.UseCase,
	logger *slog.Logger,
	io IOTuple,
	email string,
	password string,
) error {
	user, err := users.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}

	var plaintexts [][]byte
	scanner := bufio.NewScanner(io.Reader)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		plaintexts = append(plaintexts, []byte(line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read items: %w", err)
	}
	if len(plaintexts) == 0 {
		return fmt.Errorf("no items to seed")
	}

	if err := users.SeedLegacyContent(ctx, user.ID, password, plaintexts); err != nil {
		return fmt.Errorf("failed to seed content: %w", err)
	}

	_, _ = fmt.Fprintf(io.Writer, "Seeded %d legacy items for %s\n", len(plaintexts), email)

	logger.Info("legacy content seeded",
		slog.String("user_id", user.ID.String()),
		slog.Int("items", len(plaintexts)),
	)
	return nil
}
