package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldside/rostervault/pkg/types"
)

//go:embed queue_schema.sql
var queueSchemaSQL string

// QueueFileName is the shared sync queue database file, one per data
// directory regardless of how many principals use the device.
const QueueFileName = "syncqueue.db"

// Queue is the durable sync operation queue. A single physical queue holds
// every principal's pending operations, each tagged with its owning
// principal; reads are filtered to the active principal, and entries
// belonging to other principals stay queued, dormant, and invisible.
type Queue struct {
	mu     sync.RWMutex
	db     *sql.DB
	active string
	logger *slog.Logger
}

// NewQueue opens (creating if needed) the queue database at path.
func NewQueue(path string, logger *slog.Logger) (*Queue, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sync queue: %w", err)
	}
	if _, err := db.Exec(queueSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply queue schema: %w", err)
	}
	return &Queue{db: db, logger: logger}, nil
}

// SetActivePrincipal switches queue visibility to principalID. Called on
// sign-in. No data is deleted: a previously active principal's operations
// simply become dormant.
func (q *Queue) SetActivePrincipal(principalID string) error {
	if principalID == "" {
		return types.ErrMissingPrincipal
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = principalID
	return nil
}

// ClearActivePrincipal removes queue visibility. Called on sign-out.
func (q *Queue) ClearActivePrincipal() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = ""
}

// ActivePrincipal returns the currently active principal, or "".
func (q *Queue) ActivePrincipal() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.active
}

// Enqueue appends op for the active principal. The principal tag is always
// stamped here from the active principal; a caller-supplied PrincipalID is
// overwritten. Returns ErrNoActivePrincipal when no principal is active.
func (q *Queue) Enqueue(ctx context.Context, op types.SyncOperation) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active == "" {
		return types.ErrNoActivePrincipal
	}
	if !types.ValidOperation(op.Operation) {
		return fmt.Errorf("enqueue: unknown operation %q", op.Operation)
	}

	op.PrincipalID = q.active
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.Timestamp == 0 {
		op.Timestamp = time.Now().UnixMilli()
	}
	op.Status = types.SyncStatusPending

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sync_operations
		 (id, principal_id, entity_type, entity_id, operation, payload, timestamp, status, retry_count, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, '')`,
		op.ID, op.PrincipalID, op.EntityType, op.EntityID, op.Operation,
		[]byte(op.Payload), op.Timestamp, op.Status)
	if err != nil {
		return fmt.Errorf("enqueue %s %s: %w", op.Operation, op.EntityID, err)
	}
	return nil
}

// Pending returns the active principal's pending operations in FIFO order,
// excluding requeued operations still inside their retry delay. Returns an
// empty slice when no principal is active.
func (q *Queue) Pending(ctx context.Context) ([]types.SyncOperation, error) {
	return q.listByStatus(ctx, types.SyncStatusPending)
}

// Failed returns the active principal's terminally failed operations, for
// operator-facing reporting and manual retry.
func (q *Queue) Failed(ctx context.Context) ([]types.SyncOperation, error) {
	return q.listByStatus(ctx, types.SyncStatusFailed)
}

func (q *Queue) listByStatus(ctx context.Context, status string) ([]types.SyncOperation, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.active == "" {
		return nil, nil
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT id, principal_id, entity_type, entity_id, operation, payload, timestamp, status, retry_count, last_error
		 FROM sync_operations
		 WHERE principal_id = ? AND status = ? AND next_attempt_at <= ?
		 ORDER BY seq`,
		q.active, status, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list %s operations: %w", status, err)
	}
	defer rows.Close()

	var ops []types.SyncOperation
	for rows.Next() {
		var op types.SyncOperation
		var payload []byte
		if err := rows.Scan(&op.ID, &op.PrincipalID, &op.EntityType, &op.EntityID,
			&op.Operation, &payload, &op.Timestamp, &op.Status, &op.RetryCount, &op.LastError); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Payload = payload
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// MarkSyncing transitions an operation to the syncing status.
func (q *Queue) MarkSyncing(ctx context.Context, id string) error {
	return q.setStatus(ctx, id, types.SyncStatusSyncing, "", false, 0)
}

// Requeue returns a transiently failed operation to pending, increments its
// retry count, and defers its next attempt until notBefore (millisecond
// epoch; 0 means immediately eligible). The delay schedule is the caller's
// concern; the queue only enforces it.
func (q *Queue) Requeue(ctx context.Context, id, lastError string, notBefore int64) error {
	return q.setStatus(ctx, id, types.SyncStatusPending, lastError, true, notBefore)
}

// Release returns an operation to pending without counting a retry or a
// delay. Used for authorization failures, which resolve on
// re-authentication rather than by retrying.
func (q *Queue) Release(ctx context.Context, id, lastError string) error {
	return q.setStatus(ctx, id, types.SyncStatusPending, lastError, false, 0)
}

// MarkFailed transitions an operation to the terminal failed status.
func (q *Queue) MarkFailed(ctx context.Context, id, lastError string) error {
	return q.setStatus(ctx, id, types.SyncStatusFailed, lastError, false, 0)
}

func (q *Queue) setStatus(ctx context.Context, id, status, lastError string, bumpRetry bool, notBefore int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	stmt := "UPDATE sync_operations SET status = ?, last_error = ?, next_attempt_at = ? WHERE id = ?"
	if bumpRetry {
		stmt = "UPDATE sync_operations SET status = ?, last_error = ?, next_attempt_at = ?, retry_count = retry_count + 1 WHERE id = ?"
	}
	res, err := q.db.ExecContext(ctx, stmt, status, lastError, notBefore, id)
	if err != nil {
		return fmt.Errorf("set operation %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Complete removes a successfully applied operation from the queue.
func (q *Queue) Complete(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	res, err := q.db.ExecContext(ctx, "DELETE FROM sync_operations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("complete operation %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// RetryFailed returns the active principal's failed operations to pending
// with a fresh retry budget. This is the manual retry surfaced to the
// operator; it is never triggered automatically.
func (q *Queue) RetryFailed(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active == "" {
		return 0, types.ErrNoActivePrincipal
	}
	res, err := q.db.ExecContext(ctx,
		"UPDATE sync_operations SET status = ?, retry_count = 0, next_attempt_at = 0 WHERE principal_id = ? AND status = ?",
		types.SyncStatusPending, q.active, types.SyncStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("retry failed operations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PurgeActivePrincipal deletes every operation belonging to the active
// principal. Explicit and opt-in: used when a user abandons unsynced
// changes, never as a side effect of sign-out.
func (q *Queue) PurgeActivePrincipal(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active == "" {
		return 0, types.ErrNoActivePrincipal
	}
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM sync_operations WHERE principal_id = ?", q.active)
	if err != nil {
		return 0, fmt.Errorf("purge operations: %w", err)
	}
	n, _ := res.RowsAffected()
	q.logger.Info("purged sync operations", "principal", q.active, "count", n)
	return n, nil
}

// Stats returns the active principal's operation counts by status.
func (q *Queue) Stats(ctx context.Context) (map[string]int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := map[string]int{}
	if q.active == "" {
		return stats, nil
	}
	rows, err := q.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM sync_operations WHERE principal_id = ? GROUP BY status",
		q.active)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Close releases the queue database handle. Idempotent.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.db == nil {
		return nil
	}
	err := q.db.Close()
	q.db = nil
	return err
}
