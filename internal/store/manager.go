package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fieldside/rostervault/internal/sqlite"
	"github.com/fieldside/rostervault/pkg/types"
)

// Manager coordinates the sign-in lifecycle: it binds a principal to its
// partition database, wires queue visibility, and hands out the active
// DataStore. At most one principal is signed in per process.
type Manager struct {
	mu         sync.Mutex
	partitions *sqlite.Manager
	queue      *sqlite.Queue
	syncOn     bool
	logger     *slog.Logger

	active *DataStore
}

// NewManager creates a session manager. queue may be nil when the process
// runs without a sync queue; syncEnabled controls whether mutations enqueue
// sync operations.
func NewManager(partitions *sqlite.Manager, queue *sqlite.Queue, syncEnabled bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		partitions: partitions,
		queue:      queue,
		syncOn:     syncEnabled && queue != nil,
		logger:     logger,
	}
}

// SignIn opens principalID's partition and returns its DataStore. Signing in
// while another principal is active signs that principal out first; the
// previous store's cache is cleared before the new partition opens, so no
// read from the new session can observe the old principal's data. Idempotent
// for the already-active principal.
func (m *Manager) SignIn(ctx context.Context, principalID string) (*DataStore, error) {
	if principalID == "" {
		return nil, types.ErrMissingPrincipal
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.PrincipalID() == principalID {
		return m.active, nil
	}
	if m.active != nil {
		if err := m.signOutLocked(); err != nil {
			return nil, err
		}
	}

	kv, err := m.partitions.Open(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("sign in %s: %w", principalID, err)
	}

	var enq Enqueuer
	if m.syncOn {
		if err := m.queue.SetActivePrincipal(principalID); err != nil {
			return nil, err
		}
		enq = m.queue
	} else if m.queue != nil {
		// Keep queue reads scoped even when enqueueing is off.
		if err := m.queue.SetActivePrincipal(principalID); err != nil {
			return nil, err
		}
	}

	ds, err := New(principalID, kv, enq, m.logger)
	if err != nil {
		return nil, err
	}
	m.active = ds
	m.logger.Info("principal signed in", "principal", principalID)
	return ds, nil
}

// SignOut detaches the active principal: the store's cache is cleared
// synchronously, the partition handle closes, and queue visibility is
// removed. Queued sync operations are never deleted on sign-out. Idempotent.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	return m.signOutLocked()
}

// signOutLocked performs the sign-out steps. The caller must hold m.mu.
func (m *Manager) signOutLocked() error {
	principalID := m.active.PrincipalID()
	m.active.shutdown()
	m.active = nil
	if m.queue != nil {
		m.queue.ClearActivePrincipal()
	}
	if err := m.partitions.CloseActive(); err != nil {
		return fmt.Errorf("sign out %s: %w", principalID, err)
	}
	m.logger.Info("principal signed out", "principal", principalID)
	return nil
}

// Active returns the signed-in principal's DataStore, or nil.
func (m *Manager) Active() *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
