// internal/repository/kv.go
package repository

import "context"

// Keys of the persisted key-value namespace.
const (
	KeyAccounts          = "accounts"            // JSON object: normalized email -> account record
	KeyActiveSession     = "active_session"      // normalized email of the signed-in account
	KeyInviteCooldownEnd = "invite_cooldown_end" // unix millis when the next invite batch unlocks
)

// UpdateFunc receives the current value of a key (found=false when absent)
// and returns the value to store in its place.
type UpdateFunc func(current string, found bool) (string, error)

// KVStore is the flat string namespace every repository is built on.
// Implementations exist for memory, SQL (SQLite/PostgreSQL) and Redis.
type KVStore interface {
	// Get returns the value stored under key; found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Update atomically replaces the value of key with the result of fn.
	// If fn returns an error nothing is written and the error is returned.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Close releases the underlying connection, if any.
	Close() error
}
