package types

import "encoding/json"

// Sync operation kinds. OpResync is a marker enqueued after a bulk import;
// the engine responds by re-uploading the whole partition.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpResync = "resync"
)

// Sync operation statuses. Completed operations are removed from the queue
// rather than kept in a terminal success state.
const (
	SyncStatusPending = "pending"
	SyncStatusSyncing = "syncing"
	SyncStatusFailed  = "failed"
)

// validOperations is the set of recognized operation kinds.
var validOperations = map[string]bool{
	OpCreate: true,
	OpUpdate: true,
	OpDelete: true,
	OpResync: true,
}

// ValidOperation reports whether kind is a recognized sync operation kind.
func ValidOperation(kind string) bool {
	return validOperations[kind]
}

// SyncOperation is one durable queue entry describing a local mutation that
// has not yet been applied to the remote store. PrincipalID is always
// stamped by the queue from the active principal, never by the caller.
// Timestamp is milliseconds since the Unix epoch and drives last-write-wins
// resolution at the remote side.
type SyncOperation struct {
	ID          string          `json:"id"`
	PrincipalID string          `json:"principalId"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId"`
	Operation   string          `json:"operation"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   int64           `json:"timestamp"`
	Status      string          `json:"status"`
	RetryCount  int             `json:"retryCount"`
	LastError   string          `json:"lastError,omitempty"`
}

// PartitionRow is one entity in flattened form, used when the engine
// re-uploads a full partition after a resync marker.
type PartitionRow struct {
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Payload    json.RawMessage `json:"payload"`
}
