// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/sanctumapp/sanctum/internal/app"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// printRecoveryPhrase writes the one-time recovery phrase with a warning.
// The phrase is never stored in a recoverable form without the password, so
// this is the user's only chance to save it.
func printRecoveryPhrase(writer io.Writer, phrase string) {
	_, _ = fmt.Fprintln(writer, "\nRecovery phrase:")
	_, _ = fmt.Fprintf(writer, "  %s\n", phrase)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: Write this phrase down now. It is the only way to")
	_, _ = fmt.Fprintln(writer, "recover the account if the password is lost.")
}
