// Package domain defines the migration report model: a per-item accounting of
// what the legacy-to-envelope migration did, so callers can observe partial
// results and retry exactly the failed subset.
package domain

import (
	"github.com/google/uuid"

	envelopeDomain "github.com/sanctumapp/sanctum/internal/envelope/domain"
)

// Outcome is the result of migrating a single content item.
type Outcome string

const (
	// OutcomeMigrated means the item was re-encrypted with the DEK and
	// written back tagged envelope_v2.
	OutcomeMigrated Outcome = "migrated"

	// OutcomeSkippedDecryptFailure means the item could not be decrypted with
	// the legacy key. The item is left untouched on the legacy scheme.
	OutcomeSkippedDecryptFailure Outcome = "skipped_decrypt_failure"

	// OutcomeSkippedWriteFailure means the re-encrypted item could not be
	// written back. The stored item is still on the legacy scheme.
	OutcomeSkippedWriteFailure Outcome = "skipped_write_failure"
)

// ItemResult records the outcome for one content item.
type ItemResult struct {
	ItemID  uuid.UUID
	Outcome Outcome
	Reason  string // failure detail for skipped items, empty otherwise
}

// Report is the aggregate result of one migration run.
//
// RecoveryPhrase is set only when this run generated a fresh DEK (first
// attempt); a resumed run reuses the existing wrapped DEK and returns no
// phrase, since the phrase was already displayed once.
type Report struct {
	UserID         uuid.UUID
	RecoveryPhrase string
	Results        []ItemResult
	State          envelopeDomain.MigrationState
}

// MigratedCount returns the number of items moved to the envelope scheme.
func (r *Report) MigratedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == OutcomeMigrated {
			n++
		}
	}
	return n
}

// Partial reports whether any item was skipped and remains on the legacy
// scheme. A partial run leaves the record in the migrating state.
func (r *Report) Partial() bool {
	for _, res := range r.Results {
		if res.Outcome != OutcomeMigrated {
			return true
		}
	}
	return false
}

// SkippedItemIDs returns the ids of items that were not migrated, for
// targeted retries.
func (r *Report) SkippedItemIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, res := range r.Results {
		if res.Outcome != OutcomeMigrated {
			ids = append(ids, res.ItemID)
		}
	}
	return ids
}
