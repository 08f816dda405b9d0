// Package syncengine drains the durable sync queue into a remote replica,
// resolving conflicts by last write wins on entity timestamps.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldside/rostervault/internal/remote"
	"github.com/fieldside/rostervault/internal/sqlite"
	"github.com/fieldside/rostervault/pkg/types"
)

// DefaultMaxAttempts bounds per-operation retries before an operation is
// parked as failed and left to manual retry.
const DefaultMaxAttempts = 5

// Retry delay bounds: a requeued operation becomes eligible again after
// retryBackoffBase doubled per prior failure, capped at retryBackoffMax.
const (
	retryBackoffBase = 200 * time.Millisecond
	retryBackoffMax  = 30 * time.Second
)

// defaultBackoff returns the delay before the next attempt of an operation
// that has now failed `failures` times.
func defaultBackoff(failures int) time.Duration {
	d := retryBackoffBase
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= retryBackoffMax {
			return retryBackoffMax
		}
	}
	return d
}

// PartitionLister supplies the full partition contents for resync markers.
// Implemented by the data store.
type PartitionLister interface {
	PartitionRows(ctx context.Context) ([]types.PartitionRow, error)
}

// Engine pushes queued operations to a remote replica.
type Engine struct {
	queue       *sqlite.Queue
	remote      remote.Store
	lister      PartitionLister
	maxAttempts int
	backoff     func(failures int) time.Duration
	logger      *slog.Logger
}

// New creates an engine. maxAttempts <= 0 selects DefaultMaxAttempts; lister
// may be nil when resync markers are never enqueued.
func New(queue *sqlite.Queue, rs remote.Store, lister PartitionLister, maxAttempts int, logger *slog.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		queue:       queue,
		remote:      rs,
		lister:      lister,
		maxAttempts: maxAttempts,
		backoff:     defaultBackoff,
		logger:      logger,
	}
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Completed int
	Requeued  int
	Failed    int
	Skipped   int
	Conflicts int
}

// Drain pushes every pending operation for the active principal, in FIFO
// order. Returns ErrAuthExpired (wrapped) as soon as the replica rejects the
// credentials: the touched operation goes back to pending without a retry
// charge, and everything behind it stays queued for the next pass.
func (e *Engine) Drain(ctx context.Context) (DrainResult, error) {
	var res DrainResult

	ops, err := e.queue.Pending(ctx)
	if err != nil {
		return res, fmt.Errorf("list pending: %w", err)
	}

	for _, op := range ops {
		// The active principal may have changed since the listing. An
		// operation belonging to someone else stays queued untouched.
		if op.PrincipalID != e.queue.ActivePrincipal() {
			res.Skipped++
			continue
		}

		if err := e.queue.MarkSyncing(ctx, op.ID); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			return res, err
		}

		conflict, err := e.apply(ctx, op)
		switch {
		case err == nil:
			if err := e.queue.Complete(ctx, op.ID); err != nil && !errors.Is(err, types.ErrNotFound) {
				return res, err
			}
			res.Completed++
			if conflict {
				res.Conflicts++
			}
		case errors.Is(err, types.ErrAuthExpired):
			if rerr := e.queue.Release(ctx, op.ID, err.Error()); rerr != nil {
				return res, rerr
			}
			e.logger.Warn("sync paused: credentials expired", "operation", op.ID)
			return res, fmt.Errorf("drain: %w", types.ErrAuthExpired)
		default:
			if op.RetryCount+1 >= e.maxAttempts {
				if ferr := e.queue.MarkFailed(ctx, op.ID, err.Error()); ferr != nil {
					return res, ferr
				}
				res.Failed++
				e.logger.Error("sync operation failed permanently",
					"operation", op.ID, "entity", op.EntityID, "error", err)
			} else {
				notBefore := time.Now().Add(e.backoff(op.RetryCount + 1)).UnixMilli()
				if rerr := e.queue.Requeue(ctx, op.ID, err.Error(), notBefore); rerr != nil {
					return res, rerr
				}
				res.Requeued++
				e.logger.Warn("sync operation requeued",
					"operation", op.ID, "entity", op.EntityID,
					"attempt", op.RetryCount+1, "error", err)
			}
		}
	}
	return res, nil
}

// apply pushes one operation. Reports conflict=true when the remote copy was
// newer and won, in which case the local operation is dropped as applied.
func (e *Engine) apply(ctx context.Context, op types.SyncOperation) (bool, error) {
	if op.Operation == types.OpResync {
		return false, e.resync(ctx, op)
	}

	rec, err := e.remote.Fetch(ctx, op.PrincipalID, op.EntityType, op.EntityID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		// No remote state: the local write wins unconditionally.
	case err != nil:
		return false, err
	case rec.UpdatedAt > op.Timestamp:
		e.logger.Info("conflict resolved in favor of remote",
			"entity", op.EntityID, "remote", rec.UpdatedAt, "local", op.Timestamp)
		return true, nil
	}

	switch op.Operation {
	case types.OpCreate, types.OpUpdate:
		return false, e.remote.Upsert(ctx, op.PrincipalID, op.EntityType, op.EntityID, op.Payload, op.Timestamp)
	case types.OpDelete:
		return false, e.remote.Delete(ctx, op.PrincipalID, op.EntityType, op.EntityID)
	default:
		return false, fmt.Errorf("unknown operation %q", op.Operation)
	}
}

// resync re-uploads the whole partition, replacing remote state entity by
// entity. Emitted after bulk imports, where per-entity operations would be
// noise.
func (e *Engine) resync(ctx context.Context, op types.SyncOperation) error {
	if e.lister == nil {
		return errors.New("resync requested but no partition source configured")
	}
	rows, err := e.lister.PartitionRows(ctx)
	if err != nil {
		return fmt.Errorf("collect partition: %w", err)
	}
	for _, row := range rows {
		if err := e.remote.Upsert(ctx, op.PrincipalID, row.EntityType, row.EntityID, row.Payload, op.Timestamp); err != nil {
			return err
		}
	}
	e.logger.Info("partition resynced", "entities", len(rows))
	return nil
}

// Run drains on a fixed interval until ctx is cancelled. An auth failure
// pauses pushing but the loop keeps ticking, so a refreshed credential
// resumes automatically on the next pass.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := e.Drain(ctx)
			if err != nil && !errors.Is(err, types.ErrAuthExpired) {
				e.logger.Error("drain pass failed", "error", err)
			}
			if res.Completed > 0 || res.Failed > 0 {
				e.logger.Debug("drain pass",
					"completed", res.Completed, "requeued", res.Requeued,
					"failed", res.Failed, "conflicts", res.Conflicts)
			}
		}
	}
}
