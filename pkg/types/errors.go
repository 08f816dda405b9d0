package types

import "errors"

// Argument and lifecycle errors.
var (
	ErrMissingPrincipal = errors.New("principal identifier is required")
	ErrNotInitialized   = errors.New("data store is not initialized")
)

// Entity operation errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidName       = errors.New("invalid name")
	ErrUnknownEntityType = errors.New("unknown entity type")
)

// Storage errors. ErrStorageUnavailable is returned when opening a partition
// database fails after the retry ceiling; individual operation failures are
// wrapped with the underlying cause.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
)

// Backup pipeline errors.
var (
	ErrInvalidFormat      = errors.New("invalid snapshot format")
	ErrReferenceIntegrity = errors.New("reference integrity violation")
)

// Sync errors. ErrSyncConflict is informational: the engine resolves
// conflicts automatically and never surfaces this to abort a drain.
// ErrAuthExpired leaves the operation pending so it resumes on
// re-authentication.
var (
	ErrNoActivePrincipal = errors.New("no active principal")
	ErrAuthExpired       = errors.New("authentication expired")
	ErrSyncConflict      = errors.New("sync conflict resolved in favor of remote")
)
