package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fieldside/rostervault/internal/backup"
	"github.com/fieldside/rostervault/internal/remote"
	"github.com/fieldside/rostervault/internal/sqlite"
	"github.com/fieldside/rostervault/internal/store"
	"github.com/fieldside/rostervault/internal/syncengine"
	"github.com/fieldside/rostervault/pkg/types"
)

// session bundles the storage stack a command operates on: config, the
// partition manager, the shared queue, and the signed-in principal's store.
type session struct {
	cfg        types.Config
	partitions *sqlite.Manager
	queue      *sqlite.Queue
	manager    *store.Manager
	ds         *store.DataStore
	logger     *slog.Logger
}

// openSession loads configuration and signs the --principal identity in.
func openSession(ctx context.Context) (*session, error) {
	principal, err := requirePrincipal()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	partitions := sqlite.NewManager(cfg.DataDir, logger)
	queue, err := sqlite.NewQueue(filepath.Join(cfg.DataDir, sqlite.QueueFileName), logger)
	if err != nil {
		return nil, err
	}

	manager := store.NewManager(partitions, queue, cfg.Sync.Enabled, logger)
	ds, err := manager.SignIn(ctx, principal)
	if err != nil {
		queue.Close()
		return nil, err
	}

	return &session{
		cfg:        cfg,
		partitions: partitions,
		queue:      queue,
		manager:    manager,
		ds:         ds,
		logger:     logger,
	}, nil
}

func (s *session) close() {
	if err := s.manager.SignOut(); err != nil {
		s.logger.Error("sign out", "error", err)
	}
	if err := s.queue.Close(); err != nil {
		s.logger.Error("close queue", "error", err)
	}
}

// importer builds the backup importer with the configured quota budget.
func (s *session) importer() *backup.Importer {
	var quota backup.QuotaChecker
	if s.cfg.QuotaBytes > 0 {
		quota = backup.NewBudgetQuota(s.cfg.QuotaBytes, s.ds.SizeBytes)
	}
	return backup.NewImporter(s.ds, quota, s.logger)
}

// remoteStore constructs the configured remote replica client.
func (s *session) remoteStore(ctx context.Context) (remote.Store, error) {
	if !s.cfg.Sync.Enabled {
		return nil, fmt.Errorf("sync is disabled in configuration")
	}
	switch s.cfg.Sync.Backend {
	case types.RemoteHTTP:
		return remote.NewHTTPStore(s.cfg.Sync.RemoteURL, s.cfg.Sync.AuthToken), nil
	case types.RemotePostgres:
		return remote.NewPostgresStore(ctx, s.cfg.Sync.RemoteDSN)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrRemoteBackendUnknown, s.cfg.Sync.Backend)
	}
}

// engine builds the sync engine bound to this session's queue and store.
func (s *session) engine(ctx context.Context) (*syncengine.Engine, error) {
	rs, err := s.remoteStore(ctx)
	if err != nil {
		return nil, err
	}
	return syncengine.New(s.queue, rs, s.ds, s.cfg.Sync.MaxAttempts, s.logger), nil
}
