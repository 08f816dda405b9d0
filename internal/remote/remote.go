// Package remote defines the remote replica interface the sync engine drains
// into, with HTTP and Postgres backends plus an in-memory implementation for
// tests.
package remote

import (
	"context"
	"encoding/json"
)

// Record is one entity's remote state. UpdatedAt is the remote write time in
// Unix milliseconds and drives last-write-wins conflict resolution.
type Record struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt int64           `json:"updatedAt"`
}

// Store is a remote replica of principal-partitioned entity data. Every
// method is scoped to a principal; implementations must never let one
// principal's calls touch another principal's rows.
//
// Errors: types.ErrAuthExpired signals that credentials need refreshing and
// the caller should stop draining; types.ErrNotFound from Fetch means the
// entity has no remote state yet. Anything else is treated as transient.
type Store interface {
	Upsert(ctx context.Context, principalID, entityType, entityID string, payload json.RawMessage, updatedAt int64) error
	Delete(ctx context.Context, principalID, entityType, entityID string) error
	Fetch(ctx context.Context, principalID, entityType, entityID string) (Record, error)
}
