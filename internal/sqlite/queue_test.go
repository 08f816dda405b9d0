package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldside/rostervault/pkg/types"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := NewQueue(filepath.Join(t.TempDir(), QueueFileName), nil)
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQueue_EnqueueRequiresActivePrincipal(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	err := q.Enqueue(ctx, types.SyncOperation{
		EntityType: types.EntityPlayer, EntityID: "p1", Operation: types.OpCreate,
	})
	if err != types.ErrNoActivePrincipal {
		t.Errorf("expected ErrNoActivePrincipal, got %v", err)
	}
}

func TestQueue_StampsPrincipalTag(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	q.SetActivePrincipal("user-a")

	// A caller-supplied principal is never trusted.
	err := q.Enqueue(ctx, types.SyncOperation{
		PrincipalID: "user-evil",
		EntityType:  types.EntityPlayer, EntityID: "p1", Operation: types.OpCreate,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ops, err := q.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("Pending = %d ops, want 1", len(ops))
	}
	if ops[0].PrincipalID != "user-a" {
		t.Errorf("PrincipalID = %q, want stamped active principal", ops[0].PrincipalID)
	}
	if ops[0].ID == "" || ops[0].Timestamp == 0 {
		t.Errorf("ID/Timestamp not stamped: %+v", ops[0])
	}
}

func TestQueue_ReadFiltersByPrincipal(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	q.SetActivePrincipal("user-a")
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "pa", Operation: types.OpCreate})

	q.SetActivePrincipal("user-b")
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityTeam, EntityID: "tb", Operation: types.OpCreate})

	ops, _ := q.Pending(ctx)
	if len(ops) != 1 || ops[0].EntityID != "tb" {
		t.Errorf("user-b sees %+v", ops)
	}

	q.ClearActivePrincipal()
	ops, err := q.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending with no principal failed: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("no active principal but Pending returned %d ops", len(ops))
	}
}

func TestQueue_PrincipalSwitchRestoresVisibility(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	q.SetActivePrincipal("user-a")
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "pa", Operation: types.OpCreate})
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "pb", Operation: types.OpUpdate})

	q.SetActivePrincipal("user-b")
	q.SetActivePrincipal("user-a")

	ops, _ := q.Pending(ctx)
	if len(ops) != 2 {
		t.Fatalf("expected 2 dormant ops restored, got %d", len(ops))
	}
	// FIFO order preserved.
	if ops[0].EntityID != "pa" || ops[1].EntityID != "pb" {
		t.Errorf("FIFO order lost: %s, %s", ops[0].EntityID, ops[1].EntityID)
	}
}

func TestQueue_StatusLifecycle(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	q.SetActivePrincipal("user-a")
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "p1", Operation: types.OpCreate})

	ops, _ := q.Pending(ctx)
	id := ops[0].ID

	if err := q.MarkSyncing(ctx, id); err != nil {
		t.Fatalf("MarkSyncing failed: %v", err)
	}
	if ops, _ := q.Pending(ctx); len(ops) != 0 {
		t.Error("syncing op still listed as pending")
	}

	if err := q.Requeue(ctx, id, "connection reset", 0); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	ops, _ = q.Pending(ctx)
	if len(ops) != 1 || ops[0].RetryCount != 1 || ops[0].LastError != "connection reset" {
		t.Errorf("requeued op = %+v", ops)
	}

	// Release does not count a retry.
	if err := q.Release(ctx, id, "session expired"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	ops, _ = q.Pending(ctx)
	if ops[0].RetryCount != 1 {
		t.Errorf("Release bumped retry count to %d", ops[0].RetryCount)
	}

	if err := q.MarkFailed(ctx, id, "gave up"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	failed, _ := q.Failed(ctx)
	if len(failed) != 1 || failed[0].LastError != "gave up" {
		t.Errorf("failed ops = %+v", failed)
	}

	n, err := q.RetryFailed(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RetryFailed = %d, %v", n, err)
	}
	ops, _ = q.Pending(ctx)
	if len(ops) != 1 || ops[0].RetryCount != 0 {
		t.Errorf("manual retry did not reset budget: %+v", ops)
	}

	if err := q.Complete(ctx, id); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := q.Complete(ctx, id); err != types.ErrNotFound {
		t.Errorf("double Complete = %v, want ErrNotFound", err)
	}
}

func TestQueue_RequeueDelayGatesEligibility(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	q.SetActivePrincipal("user-a")
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "p1", Operation: types.OpCreate})

	ops, _ := q.Pending(ctx)
	id := ops[0].ID

	// A future next-attempt time hides the operation from Pending without
	// changing its stored status.
	future := time.Now().Add(time.Hour).UnixMilli()
	if err := q.Requeue(ctx, id, "connection reset", future); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	if ops, _ := q.Pending(ctx); len(ops) != 0 {
		t.Errorf("delayed op listed as eligible: %+v", ops)
	}
	stats, _ := q.Stats(ctx)
	if stats[types.SyncStatusPending] != 1 {
		t.Errorf("delayed op lost from stats: %v", stats)
	}

	// Once the delay elapses the operation is eligible again.
	past := time.Now().Add(-time.Second).UnixMilli()
	if err := q.Requeue(ctx, id, "connection reset", past); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	ops, _ = q.Pending(ctx)
	if len(ops) != 1 || ops[0].RetryCount != 2 {
		t.Errorf("eligible op = %+v, want retry count 2", ops)
	}

	// Manual retry of a parked operation clears any remaining delay.
	if err := q.MarkFailed(ctx, id, "gave up"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if _, err := q.RetryFailed(ctx); err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if ops, _ := q.Pending(ctx); len(ops) != 1 {
		t.Error("manually retried op not immediately eligible")
	}
}

func TestQueue_PurgeOnlyActivePrincipal(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	q.SetActivePrincipal("user-a")
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "pa", Operation: types.OpCreate})
	q.SetActivePrincipal("user-b")
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "pb", Operation: types.OpCreate})

	n, err := q.PurgeActivePrincipal(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Purge = %d, %v", n, err)
	}

	q.SetActivePrincipal("user-a")
	ops, _ := q.Pending(ctx)
	if len(ops) != 1 {
		t.Errorf("purge of user-b deleted user-a's ops: %d left", len(ops))
	}
}

func TestQueue_Stats(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	q.SetActivePrincipal("user-a")

	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "p1", Operation: types.OpCreate})
	q.Enqueue(ctx, types.SyncOperation{EntityType: types.EntityPlayer, EntityID: "p2", Operation: types.OpDelete})
	ops, _ := q.Pending(ctx)
	q.MarkFailed(ctx, ops[0].ID, "x")

	stats, err := q.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[types.SyncStatusPending] != 1 || stats[types.SyncStatusFailed] != 1 {
		t.Errorf("stats = %v", stats)
	}
}
