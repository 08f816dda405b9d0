package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldside/rostervault/pkg/types"
)

// Reader reads whole collections from a namespace. The backup pipeline uses
// one bound to the live prefix for export, and one bound to a temporary
// prefix to validate a staged import before the swap.
type Reader struct {
	ds     *DataStore
	prefix string
}

// Partition returns a Reader over the live namespace.
func (ds *DataStore) Partition() *Reader {
	return &Reader{ds: ds, prefix: ds.prefix}
}

// PartitionAt returns a Reader over an arbitrary namespace prefix.
func (ds *DataStore) PartitionAt(prefix string) *Reader {
	return &Reader{ds: ds, prefix: prefix}
}

// readerColl reads the collection under baseKey in the reader's namespace,
// bypassing the DataStore cache (the temporary namespace is never cached).
func readerColl[T any](ctx context.Context, r *Reader, baseKey string) (map[string]T, error) {
	raw, err := r.ds.kv.Get(ctx, r.prefix+"_"+baseKey)
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

func readerSingleton[T any](ctx context.Context, r *Reader, baseKey string, out *T) (bool, error) {
	raw, err := r.ds.kv.Get(ctx, r.prefix+"_"+baseKey)
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

func (r *Reader) Players(ctx context.Context) (map[string]types.Player, error) {
	return readerColl[types.Player](ctx, r, keyPlayers)
}

func (r *Reader) Teams(ctx context.Context) (map[string]types.Team, error) {
	return readerColl[types.Team](ctx, r, keyTeams)
}

func (r *Reader) TeamRosters(ctx context.Context) (map[string]types.TeamRoster, error) {
	return readerColl[types.TeamRoster](ctx, r, keyTeamRosters)
}

func (r *Reader) Seasons(ctx context.Context) (map[string]types.Season, error) {
	return readerColl[types.Season](ctx, r, keySeasons)
}

func (r *Reader) Tournaments(ctx context.Context) (map[string]types.Tournament, error) {
	return readerColl[types.Tournament](ctx, r, keyTournaments)
}

func (r *Reader) Personnel(ctx context.Context) (map[string]types.Personnel, error) {
	return readerColl[types.Personnel](ctx, r, keyPersonnel)
}

func (r *Reader) Games(ctx context.Context) (map[string]types.Game, error) {
	return readerColl[types.Game](ctx, r, keyGames)
}

func (r *Reader) PlayerAdjustments(ctx context.Context) (map[string]types.PlayerAdjustment, error) {
	return readerColl[types.PlayerAdjustment](ctx, r, keyAdjustments)
}

// WarmupPlan returns the namespace's warmup plan, or nil when absent.
func (r *Reader) WarmupPlan(ctx context.Context) (*types.WarmupPlan, error) {
	var plan types.WarmupPlan
	ok, err := readerSingleton(ctx, r, keyWarmupPlan, &plan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &plan, nil
}

func (r *Reader) Settings(ctx context.Context) (types.Settings, error) {
	var s types.Settings
	if _, err := readerSingleton(ctx, r, keySettings, &s); err != nil {
		return types.Settings{}, err
	}
	return s, nil
}

// BulkWriter writes whole collections into a namespace without touching the
// sync queue. The backup pipeline is the only caller: imports of either mode
// stage into a temporary prefix and swap.
type BulkWriter struct {
	ds     *DataStore
	prefix string
}

// BulkAt returns a BulkWriter over an arbitrary namespace prefix.
func (ds *DataStore) BulkAt(prefix string) *BulkWriter {
	return &BulkWriter{ds: ds, prefix: prefix}
}

// put marshals v under the writer's namespace, invalidating the cache entry
// when the write lands in the live namespace.
func (w *BulkWriter) put(ctx context.Context, baseKey string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", baseKey, err)
	}
	key := w.prefix + "_" + baseKey
	if err := w.ds.kv.Set(ctx, key, raw); err != nil {
		return err
	}
	w.ds.mu.Lock()
	delete(w.ds.cache, key)
	w.ds.mu.Unlock()
	return nil
}

func (w *BulkWriter) PutPlayers(ctx context.Context, m map[string]types.Player) error {
	return w.put(ctx, keyPlayers, m)
}

func (w *BulkWriter) PutTeams(ctx context.Context, m map[string]types.Team) error {
	return w.put(ctx, keyTeams, m)
}

func (w *BulkWriter) PutTeamRosters(ctx context.Context, m map[string]types.TeamRoster) error {
	return w.put(ctx, keyTeamRosters, m)
}

func (w *BulkWriter) PutSeasons(ctx context.Context, m map[string]types.Season) error {
	return w.put(ctx, keySeasons, m)
}

func (w *BulkWriter) PutTournaments(ctx context.Context, m map[string]types.Tournament) error {
	return w.put(ctx, keyTournaments, m)
}

func (w *BulkWriter) PutPersonnel(ctx context.Context, m map[string]types.Personnel) error {
	return w.put(ctx, keyPersonnel, m)
}

func (w *BulkWriter) PutGames(ctx context.Context, m map[string]types.Game) error {
	return w.put(ctx, keyGames, m)
}

func (w *BulkWriter) PutPlayerAdjustments(ctx context.Context, m map[string]types.PlayerAdjustment) error {
	return w.put(ctx, keyAdjustments, m)
}

func (w *BulkWriter) PutWarmupPlan(ctx context.Context, plan types.WarmupPlan) error {
	return w.put(ctx, keyWarmupPlan, plan)
}

func (w *BulkWriter) PutSettings(ctx context.Context, s types.Settings) error {
	return w.put(ctx, keySettings, s)
}

// SwapFromTemp atomically replaces the live namespace with the keys staged
// under tempPrefix, then clears the read cache. Delegates to the partition
// database's transactional prefix swap: either the whole swap lands or the
// live namespace is untouched.
func (ds *DataStore) SwapFromTemp(ctx context.Context, tempPrefix string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}
	if err := ds.kv.SwapPrefix(ctx, tempPrefix+"_", ds.prefix+"_"); err != nil {
		return err
	}
	ds.cache = make(map[string][]byte)
	return nil
}

// DiscardTemp deletes everything staged under tempPrefix.
func (ds *DataStore) DiscardTemp(ctx context.Context, tempPrefix string) error {
	_, err := ds.kv.ClearPrefix(ctx, tempPrefix+"_")
	return err
}
