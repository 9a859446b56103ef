package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	migrationDomain "github.com/sanctumapp/sanctum/internal/migration/domain"
	migrationUseCase "github.com/sanctumapp/sanctum/internal/migration/usecase"
	userUseCase "github.com/sanctumapp/sanctum/internal/user/usecase"
)

// RunMigrateUser re-encrypts an account's legacy content under a fresh data
// key. Login happens first so the legacy content key is derived and cached
// while the plaintext password is available. A partial run leaves skipped
// items on the legacy scheme; rerunning the command retries exactly those.
//
// Requirements: Database must be migrated and the account must exist.
func RunMigrateUser(
	ctx context.Context,
	users userUseCase.UseCase,
	migrations migrationUseCase.MigrationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	password string,
	format string,
) error {
	user, err := users.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}

	logger.Info("starting migration", slog.String("user_id", user.ID.String()))

	report, err := migrations.PerformMigration(ctx, user.ID, password)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	for _, result := range report.Results {
		if result.Outcome == migrationDomain.OutcomeMigrated {
			continue
		}
		logger.Warn("content item skipped",
			slog.String("user_id", user.ID.String()),
			slog.String("item_id", result.ItemID.String()),
			slog.String("outcome", string(result.Outcome)),
			slog.String("reason", result.Reason),
		)
	}

	if format == "json" {
		outputReportJSON(report, writer)
	} else {
		outputReportText(report, writer)
	}

	logger.Info("migration finished",
		slog.String("user_id", user.ID.String()),
		slog.String("state", string(report.State)),
		slog.Int("migrated", report.MigratedCount()),
		slog.Int("skipped", len(report.SkippedItemIDs())),
	)
	return nil
}

// outputReportText outputs the migration report in human-readable text format.
func outputReportText(report *migrationDomain.Report, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Migration state: %s\n", report.State)
	_, _ = fmt.Fprintf(writer, "Items migrated: %d\n", report.MigratedCount())

	if report.Partial() {
		_, _ = fmt.Fprintln(writer, "Skipped items:")
		for _, result := range report.Results {
			if result.Outcome == migrationDomain.OutcomeMigrated {
				continue
			}
			_, _ = fmt.Fprintf(writer, "  %s: %s (%s)\n", result.ItemID, result.Outcome, result.Reason)
		}
		_, _ = fmt.Fprintln(writer, "Rerun the command to retry the skipped items.")
	}

	if report.State == envelopeDomain.StateUpgraded {
		_, _ = fmt.Fprintln(writer, "All content is on envelope encryption.")
	}

	if report.RecoveryPhrase != "" {
		printRecoveryPhrase(writer, report.RecoveryPhrase)
	}
}

// outputReportJSON outputs the migration report in JSON format for machine
// consumption.
func outputReportJSON(report *migrationDomain.Report, writer io.Writer) {
	type itemResult struct {
		ItemID  string `json:"item_id"`
		Outcome string `json:"outcome"`
		Reason  string `json:"reason,omitempty"`
	}

	results := make([]itemResult, 0, len(report.Results))
	for _, result := range report.Results {
		results = append(results, itemResult{
			ItemID:  result.ItemID.String(),
			Outcome: string(result.Outcome),
			Reason:  result.Reason,
		})
	}

	out := map[string]any{
		"user_id":  report.UserID.String(),
		"state":    string(report.State),
		"migrated": report.MigratedCount(),
		"results":  results,
	}
	if report.RecoveryPhrase != "" {
		out["recovery_phrase"] = report.RecoveryPhrase
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(writer, "failed to marshal JSON: %v\n", err)
		return
	}
	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
