// Package store implements the principal-scoped data store: CRUD for every
// domain entity, delegated to the principal's partition database through
// namespace-scoped keys. Every mutation optionally enqueues a sync
// operation; reads are served through a write-through cache that is cleared
// synchronously on sign-out.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/internal/sqlite"
	"github.com/fieldside/rostervault/pkg/types"
)

// Base storage keys. Each is scoped with the principal's namespace prefix
// before touching the partition database.
const (
	keyPlayers     = "players"
	keyTeams       = "teams"
	keyTeamRosters = "teamRosters"
	keySeasons     = "seasons"
	keyTournaments = "tournaments"
	keyPersonnel   = "personnel"
	keyGames       = "games"
	keyAdjustments = "playerAdjustments"
	keyWarmupPlan  = "warmupPlan"
	keySettings    = "settings"
)

// collectionKeys lists every base key a partition can hold.
var collectionKeys = []string{
	keyPlayers, keyTeams, keyTeamRosters, keySeasons, keyTournaments,
	keyPersonnel, keyGames, keyAdjustments, keyWarmupPlan, keySettings,
}

// Sync row types for entities whose storage key is not an identifier token.
const (
	syncTypeTeamRoster = "teamRoster"
	syncTypeWarmupPlan = "warmupPlan"
	syncTypeSettings   = "settings"
	syncTypePartition  = "partition"
)

// Enqueuer receives one sync operation per local mutation. A nil Enqueuer
// disables sync without affecting local correctness.
type Enqueuer interface {
	Enqueue(ctx context.Context, op types.SyncOperation) error
}

// DataStore is the per-principal CRUD facade over the partition database.
type DataStore struct {
	mu          sync.Mutex
	principalID string
	prefix      string
	kv          *sqlite.Store
	enq         Enqueuer
	logger      *slog.Logger
	cache       map[string][]byte
	initialized bool
}

// New creates a DataStore bound to an open partition. enq may be nil when
// sync is disabled.
func New(principalID string, kv *sqlite.Store, enq Enqueuer, logger *slog.Logger) (*DataStore, error) {
	prefix, err := scope.PrefixFor(principalID)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DataStore{
		principalID: principalID,
		prefix:      prefix,
		kv:          kv,
		enq:         enq,
		logger:      logger,
		cache:       make(map[string][]byte),
		initialized: true,
	}, nil
}

// PrincipalID returns the owning principal.
func (ds *DataStore) PrincipalID() string {
	return ds.principalID
}

// Prefix returns the principal's namespace prefix.
func (ds *DataStore) Prefix() string {
	return ds.prefix
}

// IsInitialized reports whether the store is attached to an open partition.
// All other methods fail with ErrNotInitialized when this is false.
func (ds *DataStore) IsInitialized() bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.initialized
}

// shutdown detaches the store and clears the read cache. It completes
// synchronously so a subsequent sign-in can never observe this principal's
// cached reads.
func (ds *DataStore) shutdown() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.initialized = false
	ds.cache = make(map[string][]byte)
}

// ClearCache drops every cached read. Synchronous.
func (ds *DataStore) ClearCache() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.cache = make(map[string][]byte)
}

func (ds *DataStore) ready() error {
	if !ds.initialized {
		return types.ErrNotInitialized
	}
	return nil
}

// scopedKey returns the partition key for a base key. The principal was
// validated at construction, so ScopeKey cannot fail here.
func (ds *DataStore) scopedKey(baseKey string) string {
	key, _ := scope.ScopeKey(baseKey, ds.principalID)
	return key
}

// readRaw returns the raw JSON under baseKey, consulting the cache first.
// The caller must hold ds.mu.
func (ds *DataStore) readRaw(ctx context.Context, baseKey string) ([]byte, error) {
	key := ds.scopedKey(baseKey)
	if raw, ok := ds.cache[key]; ok {
		return raw, nil
	}
	raw, err := ds.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	ds.cache[key] = raw
	return raw, nil
}

// writeRaw persists raw JSON under baseKey and updates the cache.
// The caller must hold ds.mu.
func (ds *DataStore) writeRaw(ctx context.Context, baseKey string, raw []byte) error {
	key := ds.scopedKey(baseKey)
	if err := ds.kv.Set(ctx, key, raw); err != nil {
		return err
	}
	ds.cache[key] = raw
	return nil
}

// readCollection unmarshals the map stored under baseKey. An absent key
// yields an empty map. The caller must hold ds.mu.
func readCollection[T any](ctx context.Context, ds *DataStore, baseKey string) (map[string]T, error) {
	raw, err := ds.readRaw(ctx, baseKey)
	if err == types.ErrNotFound {
		return make(map[string]T), nil
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]T)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", baseKey, err)
	}
	return out, nil
}

// writeCollection marshals and persists a map under baseKey.
// The caller must hold ds.mu.
func writeCollection[T any](ctx context.Context, ds *DataStore, baseKey string, coll map[string]T) error {
	raw, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("encode %s: %w", baseKey, err)
	}
	return ds.writeRaw(ctx, baseKey, raw)
}

// readSingleton unmarshals the singleton stored under baseKey. Reports
// false when absent. The caller must hold ds.mu.
func readSingleton[T any](ctx context.Context, ds *DataStore, baseKey string, out *T) (bool, error) {
	raw, err := ds.readRaw(ctx, baseKey)
	if err == types.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", baseKey, err)
	}
	return true, nil
}

// writeSingleton marshals and persists a singleton under baseKey.
// The caller must hold ds.mu.
func writeSingleton[T any](ctx context.Context, ds *DataStore, baseKey string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", baseKey, err)
	}
	return ds.writeRaw(ctx, baseKey, raw)
}

// sortedValues returns a collection's values ordered by ID for
// deterministic listings.
func sortedValues[T any](coll map[string]T, idOf func(T) string) []T {
	out := make([]T, 0, len(coll))
	for _, v := range coll {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return idOf(out[i]) < idOf(out[j]) })
	return out
}

// enqueue records a sync operation for a local mutation. A nil payload is
// used for deletes. No-op when sync is disabled.
// The caller must hold ds.mu.
func (ds *DataStore) enqueue(ctx context.Context, operation, entityType, entityID string, payload any) error {
	if ds.enq == nil {
		return nil
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode sync payload: %w", err)
		}
		raw = b
	}
	op := types.SyncOperation{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  operation,
		Payload:    raw,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := ds.enq.Enqueue(ctx, op); err != nil {
		return fmt.Errorf("enqueue sync operation: %w", err)
	}
	return nil
}

// EnqueueResync records the single resync marker emitted after a bulk
// import. No-op when sync is disabled.
func (ds *DataStore) EnqueueResync(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.enqueue(ctx, types.OpResync, syncTypePartition, ds.prefix, nil)
}

// ClearAllUserData deletes every scoped key for this principal. Used by the
// backup pipeline's atomic swap and by explicit account-deletion flows,
// never as a side effect of ordinary CRUD.
func (ds *DataStore) ClearAllUserData(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}
	if _, err := ds.kv.ClearPrefix(ctx, ds.prefix+"_"); err != nil {
		return fmt.Errorf("clear user data: %w", err)
	}
	ds.cache = make(map[string][]byte)
	return nil
}

// SizeBytes reports the partition database file size for quota estimates.
func (ds *DataStore) SizeBytes() int64 {
	return ds.kv.SizeBytes()
}

// PartitionRows flattens the partition into per-entity rows for a full
// re-upload after a resync marker.
func (ds *DataStore) PartitionRows(ctx context.Context) ([]types.PartitionRow, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	var rows []types.PartitionRow
	appendColl := func(entityType, baseKey string) error {
		coll, err := readCollection[json.RawMessage](ctx, ds, baseKey)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(coll))
		for id := range coll {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			rows = append(rows, types.PartitionRow{EntityType: entityType, EntityID: id, Payload: coll[id]})
		}
		return nil
	}

	for _, c := range []struct{ entityType, baseKey string }{
		{types.EntityPlayer, keyPlayers},
		{types.EntityTeam, keyTeams},
		{syncTypeTeamRoster, keyTeamRosters},
		{types.EntitySeason, keySeasons},
		{types.EntityTournament, keyTournaments},
		{types.EntityPersonnel, keyPersonnel},
		{types.EntityGame, keyGames},
		{types.EntityAdjustment, keyAdjustments},
	} {
		if err := appendColl(c.entityType, c.baseKey); err != nil {
			return nil, err
		}
	}

	var plan types.WarmupPlan
	if ok, err := readSingleton(ctx, ds, keyWarmupPlan, &plan); err != nil {
		return nil, err
	} else if ok {
		raw, _ := json.Marshal(plan)
		rows = append(rows, types.PartitionRow{EntityType: syncTypeWarmupPlan, EntityID: plan.ID, Payload: raw})
	}
	var settings types.Settings
	if ok, err := readSingleton(ctx, ds, keySettings, &settings); err != nil {
		return nil, err
	} else if ok {
		raw, _ := json.Marshal(settings)
		rows = append(rows, types.PartitionRow{EntityType: syncTypeSettings, EntityID: ds.prefix, Payload: raw})
	}
	return rows, nil
}
