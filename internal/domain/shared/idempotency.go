package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of operations that were already carried out,
// so a replayed request is recognised instead of being applied twice
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a key so the operation may be attempted again.
	// Used when the guarded operation failed after the key was marked.
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
