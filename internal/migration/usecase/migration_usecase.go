package usecase

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	contentDomain "github.com/sanctumapp/sanctum/internal/content/domain"
	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
	cryptoService "github.com/sanctumapp/sanctum/internal/crypto/service"
	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
	envelopeService "github.com/sanctumapp/sanctum/internal/envelope/service"
	envelopeUsecase "github.com/sanctumapp/sanctum/internal/envelope/usecase"
	apperrors "github.com/sanctumapp/sanctum/internal/errors"
	migrationDomain "github.com/sanctumapp/sanctum/internal/migration/domain"
	"github.com/sanctumapp/sanctum/internal/recovery"
	"github.com/sanctumapp/sanctum/internal/session"
)

// Options tunes the migration run.
type Options struct {
	// Parallelism bounds concurrent decrypt/re-encrypt work.
	Parallelism int

	// WritesPerSecond throttles content write-backs so a large migration
	// does not starve foreground traffic.
	WritesPerSecond float64

	// WriteBurst is the write limiter's burst size.
	WriteBurst int
}

func (o Options) withDefaults() Options {
	if o.Parallelism <= 0 {
		o.Parallelism = 4
	}
	if o.WritesPerSecond <= 0 {
		o.WritesPerSecond = 100
	}
	if o.WriteBurst <= 0 {
		o.WriteBurst = 10
	}
	return o
}

// migrationUseCase implements MigrationUseCase.
type migrationUseCase struct {
	keyRecordRepo envelopeUsecase.KeyRecordRepository
	contentRepo   ContentRepository
	wrapper       envelopeService.KeyWrapper
	aeadManager   cryptoService.AEADManager
	keyring       *session.Keyring
	algorithm     cryptoDomain.Algorithm
	parallelism   int
	writeLimiter  *rate.Limiter
}

// NewMigrationUseCase creates a MigrationUseCase.
func NewMigrationUseCase(
	keyRecordRepo envelopeUsecase.KeyRecordRepository,
	contentRepo ContentRepository,
	wrapper envelopeService.KeyWrapper,
	aeadManager cryptoService.AEADManager,
	keyring *session.Keyring,
	algorithm cryptoDomain.Algorithm,
	opts Options,
) MigrationUseCase {
	opts = opts.withDefaults()
	return &migrationUseCase{
		keyRecordRepo: keyRecordRepo,
		contentRepo:   contentRepo,
		wrapper:       wrapper,
		aeadManager:   aeadManager,
		keyring:       keyring,
		algorithm:     algorithm,
		parallelism:   opts.Parallelism,
		writeLimiter:  rate.NewLimiter(rate.Limit(opts.WritesPerSecond), opts.WriteBurst),
	}
}

// rewrittenItem is one legacy item after the re-encryption phase.
type rewrittenItem struct {
	item       *contentDomain.Item
	ciphertext []byte
	nonce      []byte
	err        error
}

// PerformMigration moves all of a user's legacy content to the envelope scheme.
func (m *migrationUseCase) PerformMigration(
	ctx context.Context,
	userID uuid.UUID,
	password string,
) (*migrationDomain.Report, error) {
	// 1. A finished migration is terminal; re-running is a no-op. This is
	// checked before the legacy-key requirement, which an upgraded session
	// can no longer satisfy.
	existing, err := m.keyRecordRepo.Get(ctx, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.MigrationState == envelopeDomain.StateUpgraded {
		return &migrationDomain.Report{
			UserID: userID,
			State:  envelopeDomain.StateUpgraded,
		}, nil
	}

	// 2. The legacy key must already be cached from a legacy-scheme login.
	keys, ok := m.keyring.Get(userID)
	if !ok || keys.LegacyKey == nil {
		return nil, envelopeDomain.ErrLegacyKeyUnavailable
	}
	legacyKey := *keys.LegacyKey

	// 3. Create the key record, or resume from an earlier interrupted run.
	record, dek, freshPhrase, err := m.ensureKeyRecord(ctx, existing, userID, password)
	if err != nil {
		return nil, err
	}

	report := &migrationDomain.Report{
		UserID:         userID,
		RecoveryPhrase: freshPhrase,
		State:          record.MigrationState,
	}

	// 4. Cache both keys so the session can read mixed-scheme content while
	// the migration runs.
	m.keyring.Put(userID, session.Keys{DEK: dek, LegacyKey: &legacyKey})

	// 5. Collect the items still on the legacy scheme.
	items, err := m.contentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var legacyItems []*contentDomain.Item
	for _, item := range items {
		if item.Scheme == contentDomain.SchemeLegacyV1 {
			legacyItems = append(legacyItems, item)
		}
	}
	if len(legacyItems) == 0 {
		return m.finalize(ctx, report)
	}

	legacyCipher, err := m.aeadManager.CreateCipher(legacyKey, m.algorithm)
	if err != nil {
		return nil, err
	}
	dekCipher, err := m.aeadManager.CreateCipher(dek, m.algorithm)
	if err != nil {
		return nil, err
	}

	// 6. Decrypt with the legacy key and re-encrypt with the DEK, bounded by
	// the configured parallelism. A failed item is recorded, not fatal.
	results := make([]rewrittenItem, len(legacyItems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for i, item := range legacyItems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = m.rewrite(legacyCipher, dekCipher, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 7. Verify one rewritten item round-trips through the DEK before
	// anything is written back. A mismatch aborts the run with the stored
	// content untouched.
	if err := m.verify(legacyCipher, dekCipher, results); err != nil {
		return nil, err
	}

	// 8. Write back re-encrypted items, throttled. Identity and ownership
	// are preserved; only ciphertext, nonce and scheme change.
	report.Results = m.writeBack(ctx, results)

	// 9. Only a run with nothing skipped reaches the terminal state.
	if report.Partial() {
		return report, nil
	}
	return m.finalize(ctx, report)
}

// ensureKeyRecord creates the user's key record on the first migration
// attempt. The record is persisted before any content is touched. A resumed
// run unwraps the existing DEK instead of generating a new one, so the
// recovery phrase shown on the first attempt stays valid.
func (m *migrationUseCase) ensureKeyRecord(
	ctx context.Context,
	record *envelopeDomain.KeyRecord,
	userID uuid.UUID,
	password string,
) (*envelopeDomain.KeyRecord, cryptoDomain.KeyHandle, string, error) {
	if record != nil {
		dek, err := m.wrapper.UnwrapWithPassword(record.PasswordWrap, password)
		if err != nil {
			return nil, cryptoDomain.KeyHandle{}, "", err
		}
		return record, dek, "", nil
	}

	dek, err := m.wrapper.GenerateDEK()
	if err != nil {
		return nil, cryptoDomain.KeyHandle{}, "", err
	}

	phrase, err := recovery.Generate()
	if err != nil {
		return nil, cryptoDomain.KeyHandle{}, "", err
	}

	passwordWrap, err := m.wrapper.WrapWithPassword(dek, password)
	if err != nil {
		return nil, cryptoDomain.KeyHandle{}, "", err
	}
	recoveryWrap, err := m.wrapper.WrapWithRecoveryPhrase(dek, phrase)
	if err != nil {
		return nil, cryptoDomain.KeyHandle{}, "", err
	}
	phraseCiphertext, phraseNonce, err := m.wrapper.EncryptRecoveryPhrase(phrase, password, passwordWrap)
	if err != nil {
		return nil, cryptoDomain.KeyHandle{}, "", err
	}

	now := time.Now().UTC()
	record = &envelopeDomain.KeyRecord{
		UserID:                  userID,
		Version:                 envelopeDomain.RecordVersion,
		PasswordWrap:            passwordWrap,
		RecoveryWrap:            &recoveryWrap,
		EncryptedRecoveryPhrase: phraseCiphertext,
		RecoveryPhraseNonce:     phraseNonce,
		MigrationState:          envelopeDomain.StateMigrating,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := m.keyRecordRepo.Create(ctx, record); err != nil {
		return nil, cryptoDomain.KeyHandle{}, "", err
	}

	return record, dek, phrase, nil
}

// rewrite decrypts one item with the legacy key and re-encrypts it with the
// DEK, in memory only.
func (m *migrationUseCase) rewrite(
	legacyCipher, dekCipher cryptoService.AEAD,
	item *contentDomain.Item,
) rewrittenItem {
	plaintext, err := legacyCipher.Decrypt(item.Ciphertext, item.Nonce, nil)
	if err != nil {
		return rewrittenItem{item: item, err: err}
	}
	defer cryptoDomain.Zero(plaintext)

	ciphertext, nonce, err := dekCipher.Encrypt(plaintext, nil)
	if err != nil {
		return rewrittenItem{item: item, err: err}
	}
	return rewrittenItem{item: item, ciphertext: ciphertext, nonce: nonce}
}

// verify picks the first successfully rewritten item and checks that its new
// ciphertext decrypts back to the legacy plaintext. Catches a wrong DEK or a
// broken cipher before any stored content is overwritten.
func (m *migrationUseCase) verify(
	legacyCipher, dekCipher cryptoService.AEAD,
	results []rewrittenItem,
) error {
	for _, result := range results {
		if result.err != nil {
			continue
		}

		want, err := legacyCipher.Decrypt(result.item.Ciphertext, result.item.Nonce, nil)
		if err != nil {
			return envelopeDomain.ErrVerificationFailed
		}
		defer cryptoDomain.Zero(want)

		got, err := dekCipher.Decrypt(result.ciphertext, result.nonce, nil)
		if err != nil {
			return envelopeDomain.ErrVerificationFailed
		}
		defer cryptoDomain.Zero(got)

		if !bytes.Equal(want, got) {
			return envelopeDomain.ErrVerificationFailed
		}
		return nil
	}

	// Nothing decrypted, so nothing will be written; there is nothing to
	// verify.
	return nil
}

// writeBack persists the rewritten items under the write limiter and tags
// each item with its outcome.
func (m *migrationUseCase) writeBack(
	ctx context.Context,
	results []rewrittenItem,
) []migrationDomain.ItemResult {
	itemResults := make([]migrationDomain.ItemResult, 0, len(results))

	var abortReason string
	for _, result := range results {
		if result.err != nil {
			itemResults = append(itemResults, migrationDomain.ItemResult{
				ItemID:  result.item.ID,
				Outcome: migrationDomain.OutcomeSkippedDecryptFailure,
				Reason:  result.err.Error(),
			})
			continue
		}

		if abortReason == "" {
			if err := m.writeLimiter.Wait(ctx); err != nil {
				// Wait also fails when the required delay would overrun the
				// deadline, before the context itself is done. Everything not
				// yet written stays legacy.
				abortReason = err.Error()
			}
		}
		if abortReason != "" {
			itemResults = append(itemResults, migrationDomain.ItemResult{
				ItemID:  result.item.ID,
				Outcome: migrationDomain.OutcomeSkippedWriteFailure,
				Reason:  abortReason,
			})
			continue
		}

		err := m.contentRepo.UpdateCiphertext(
			ctx,
			result.item.ID,
			result.ciphertext,
			result.nonce,
			contentDomain.SchemeEnvelopeV2,
		)
		if err != nil {
			itemResults = append(itemResults, migrationDomain.ItemResult{
				ItemID:  result.item.ID,
				Outcome: migrationDomain.OutcomeSkippedWriteFailure,
				Reason:  err.Error(),
			})
			continue
		}

		itemResults = append(itemResults, migrationDomain.ItemResult{
			ItemID:  result.item.ID,
			Outcome: migrationDomain.OutcomeMigrated,
		})
	}

	return itemResults
}

// finalize marks the record upgraded once no legacy items remain. The cached
// legacy key is destroyed with it; an upgraded session only ever needs the DEK.
func (m *migrationUseCase) finalize(
	ctx context.Context,
	report *migrationDomain.Report,
) (*migrationDomain.Report, error) {
	err := m.keyRecordRepo.UpdateMigrationState(ctx, report.UserID, envelopeDomain.StateUpgraded)
	if err != nil {
		return nil, err
	}
	report.State = envelopeDomain.StateUpgraded

	if keys, ok := m.keyring.Get(report.UserID); ok && keys.LegacyKey != nil {
		keys.LegacyKey.Destroy()
		keys.LegacyKey = nil
		m.keyring.Put(report.UserID, keys)
	}

	return report, nil
}
