package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sanctumapp/sanctum/internal/metrics"
	migrationDomain "github.com/sanctumapp/sanctum/internal/migration/domain"
)

// migrationUseCaseWithMetrics decorates MigrationUseCase with metrics
// instrumentation.
type migrationUseCaseWithMetrics struct {
	next    MigrationUseCase
	metrics metrics.BusinessMetrics
}

// NewMigrationUseCaseWithMetrics wraps a MigrationUseCase with metrics
// recording.
func NewMigrationUseCaseWithMetrics(useCase MigrationUseCase, m metrics.BusinessMetrics) MigrationUseCase {
	return &migrationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// PerformMigration records metrics for migration runs. A partial run counts
// as "partial" rather than "success" so stuck migrations show up on a
// dashboard.
func (s *migrationUseCaseWithMetrics) PerformMigration(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (*migrationDomain.Report, error) {
	start := time.Now()
	report, err := s.next.PerformMigration(ctx, userID, password)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case report.Partial():
		status = "partial"
	}

	s.metrics.RecordOperation(ctx, "migration", "perform_migration", status)
	s.metrics.RecordDuration(ctx, "migration", "perform_migration", time.Since(start), status)

	return report, err
}
