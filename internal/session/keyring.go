// Package session provides the process-local, session-scoped cache of
// unwrapped keys. Entries exist only between unlock and logout; nothing here
// is ever persisted.
package session

import (
	"sync"

	"github.com/google/uuid"

	cryptoDomain "github.com/sanctumapp/sanctum/internal/crypto/domain"
)

// Keys holds the live key material for one authenticated user.
//
// LegacyKey is populated only while the user's migration state is not yet
// upgraded; it is the old password-derived content key obtained at login
// under the legacy scheme.
type Keys struct {
	DEK       cryptoDomain.KeyHandle
	LegacyKey *cryptoDomain.KeyHandle
}

// Keyring is an in-memory map of user id to live keys.
//
// It is the only mutable shared state in the envelope core. Clear zeroes key
// material before dropping the entry; a new session always requires
// re-unlocking.
type Keyring struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Keys
}

// NewKeyring creates an empty Keyring.
func NewKeyring() *Keyring {
	return &Keyring{
		entries: make(map[uuid.UUID]Keys),
	}
}

// Get returns the keys cached for the user, if any.
func (k *Keyring) Get(userID uuid.UUID) (Keys, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	keys, ok := k.entries[userID]
	return keys, ok
}

// Put stores the keys for a user, replacing any previous entry.
func (k *Keyring) Put(userID uuid.UUID, keys Keys) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.entries[userID] = keys
}

// Clear removes and scrubs the keys for one user.
func (k *Keyring) Clear(userID uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if keys, ok := k.entries[userID]; ok {
		scrub(keys)
		delete(k.entries, userID)
	}
}

// ClearAll removes and scrubs every entry. Called on logout.
func (k *Keyring) ClearAll() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for id, keys := range k.entries {
		scrub(keys)
		delete(k.entries, id)
	}
}

// Len returns the number of cached entries.
func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return len(k.entries)
}

func scrub(keys Keys) {
	keys.DEK.Destroy()
	if keys.LegacyKey != nil {
		keys.LegacyKey.Destroy()
	}
}
