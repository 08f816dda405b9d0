package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// Open retry parameters: a handful of attempts with capped exponential
// backoff covers transient filesystem contention without stalling sign-in.
const (
	openMaxAttempts = 5
	openBaseDelay   = 50 * time.Millisecond
	openMaxDelay    = 2 * time.Second
)

// Manager owns the single active partition handle. Opening one principal's
// partition closes the previously active principal's handle first; there is
// never more than one partition database open per process.
type Manager struct {
	mu      sync.Mutex
	dataDir string
	logger  *slog.Logger

	active          *Store
	activePrincipal string

	// sleep is replaceable in tests to avoid real backoff delays.
	sleep func(context.Context, time.Duration) error
}

// openPartition is replaceable in tests to inject open failures.
var openPartition = openStore

// NewManager creates a Manager rooted at dataDir.
func NewManager(dataDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dataDir: dataDir,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// PartitionPath returns the partition database path for a principal.
func (m *Manager) PartitionPath(principalID string) (string, error) {
	prefix, err := scope.PrefixFor(principalID)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.dataDir, "data_"+prefix+".db"), nil
}

// Open returns the partition store for principalID, opening it if needed.
// Idempotent for the already-active principal. Opening a different
// principal closes the previous handle first. Concurrent opens are
// serialized through the manager's lock; transient open failures are
// retried with capped exponential backoff, and ErrStorageUnavailable is
// returned once the attempt ceiling is exhausted.
func (m *Manager) Open(ctx context.Context, principalID string) (*Store, error) {
	if principalID == "" {
		return nil, types.ErrMissingPrincipal
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.activePrincipal == principalID {
		return m.active, nil
	}
	if m.active != nil {
		m.logger.Info("closing previous partition before principal switch",
			"path", m.active.Path())
		if err := m.active.Close(); err != nil {
			return nil, fmt.Errorf("close previous partition: %w", err)
		}
		m.active = nil
		m.activePrincipal = ""
	}

	path, err := m.PartitionPath(principalID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	delay := openBaseDelay
	for attempt := 1; attempt <= openMaxAttempts; attempt++ {
		store, err := openPartition(path)
		if err == nil {
			m.active = store
			m.activePrincipal = principalID
			return store, nil
		}
		lastErr = err
		m.logger.Warn("partition open failed, retrying",
			"path", path, "attempt", attempt, "error", err)
		if attempt == openMaxAttempts {
			break
		}
		if err := m.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
		if delay > openMaxDelay {
			delay = openMaxDelay
		}
	}
	return nil, fmt.Errorf("%w: %v", types.ErrStorageUnavailable, lastErr)
}

// Active returns the currently open partition store, or nil.
func (m *Manager) Active() *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// CloseActive closes the active partition handle if one is open. Always
// called on sign-out. Idempotent.
func (m *Manager) CloseActive() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	err := m.active.Close()
	m.active = nil
	m.activePrincipal = ""
	return err
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
