package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	"github.com/sanctumapp/sanctum/internal/metrics"
)

// lifecycleUseCaseWithMetrics decorates LifecycleUseCase with metrics
// instrumentation.
type lifecycleUseCaseWithMetrics struct {
	next    LifecycleUseCase
	metrics metrics.BusinessMetrics
}

// NewLifecycleUseCaseWithMetrics wraps a LifecycleUseCase with metrics
// recording.
func NewLifecycleUseCaseWithMetrics(useCase LifecycleUseCase, m metrics.BusinessMetrics) LifecycleUseCase {
	return &lifecycleUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *lifecycleUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "envelope", operation, status)
	s.metrics.RecordDuration(ctx, "envelope", operation, time.Since(start), status)
}

// Setup records metrics for initial key provisioning.
func (s *lifecycleUseCaseWithMetrics) Setup(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (*SetupResult, error) {
	start := time.Now()
	result, err := s.next.Setup(ctx, userID, password)
	s.record(ctx, "setup", start, err)
	return result, err
}

// Unlock records metrics for unlock operations.
func (s *lifecycleUseCaseWithMetrics) Unlock(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (cryptoDomain.KeyHandle, error) {
	start := time.Now()
	dek, err := s.next.Unlock(ctx, userID, password)
	s.record(ctx, "unlock", start, err)
	return dek, err
}

// ChangePassword records metrics for password changes.
func (s *lifecycleUseCaseWithMetrics) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	oldPassword, newPassword string,
) (*envelopeDomain.KeyRecord, error) {
	start := time.Now()
	record, err := s.next.ChangePassword(ctx, userID, oldPassword, newPassword)
	s.record(ctx, "change_password", start, err)
	return record, err
}

// RestoreWithRecovery records metrics for recovery restores.
func (s *lifecycleUseCaseWithMetrics) RestoreWithRecovery(
	ctx context.Context,
	userID uuid.UUID,
	recoveryPhrase, newPassword string,
) (*envelopeDomain.KeyRecord, error) {
	start := time.Now()
	record, err := s.next.RestoreWithRecovery(ctx, userID, recoveryPhrase, newPassword)
	s.record(ctx, "restore_with_recovery", start, err)
	return record, err
}

// RedisplayRecoveryPhrase records metrics for phrase redisplay.
func (s *lifecycleUseCaseWithMetrics) RedisplayRecoveryPhrase(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (string, error) {
	start := time.Now()
	phrase, err := s.next.RedisplayRecoveryPhrase(ctx, userID, password)
	s.record(ctx, "redisplay_recovery_phrase", start, err)
	return phrase, err
}

// Logout passes through; clearing the keyring has no failure mode to record.
func (s *lifecycleUseCaseWithMetrics) Logout(userID uuid.UUID) {
	s.next.Logout(userID)
}
