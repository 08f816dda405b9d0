package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldside/rostervault/internal/store"
	"github.com/fieldside/rostervault/pkg/types"
)

// Mode selects import behavior: merge upserts into the live partition,
// replace atomically substitutes the whole partition.
type Mode string

const (
	ModeMerge   Mode = "merge"
	ModeReplace Mode = "replace"
)

// Result reports how many entities of each type an import wrote.
type Result struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// Importer runs snapshot imports against one principal's data store.
type Importer struct {
	ds     *store.DataStore
	quota  QuotaChecker
	logger *slog.Logger
}

// NewImporter creates an importer. quota may be nil; the pre-check then
// passes optimistically.
func NewImporter(ds *store.DataStore, quota QuotaChecker, logger *slog.Logger) *Importer {
	if quota == nil {
		quota = OptimisticQuota()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{ds: ds, quota: quota, logger: logger}
}

// Import brings a portable snapshot into the principal's partition. Every
// identifier is regenerated into the principal's namespace and every
// cross-reference rewritten before any storage is touched; the quota
// pre-check also happens up front. Both modes stage into a temporary
// namespace, validate references there, and swap; a failure at any step
// leaves the live partition untouched.
func (imp *Importer) Import(ctx context.Context, snap *types.Snapshot, mode Mode) (Result, error) {
	var res Result

	if snap == nil {
		return res, fmt.Errorf("%w: no snapshot", types.ErrInvalidFormat)
	}
	if snap.FormatVersion != types.SnapshotFormatVersion {
		return res, fmt.Errorf("%w: snapshot format %d, this build reads %d",
			types.ErrInvalidFormat, snap.FormatVersion, types.SnapshotFormatVersion)
	}
	if mode != ModeMerge && mode != ModeReplace {
		return res, fmt.Errorf("%w: unknown import mode %q", types.ErrInvalidFormat, mode)
	}

	regen, err := regenerate(snap, imp.ds.PrincipalID())
	if err != nil {
		return res, err
	}

	if err := imp.checkQuota(ctx, regen); err != nil {
		return res, err
	}

	err = imp.stage(ctx, regen, mode == ModeMerge)
	if err != nil {
		return res, err
	}

	// Bulk writes bypass the per-entity queue; one resync marker tells the
	// engine to re-upload the whole partition.
	if err := imp.ds.EnqueueResync(ctx); err != nil {
		return res, err
	}

	res = countResult(regen)
	imp.logger.Info("snapshot imported", "mode", string(mode), "entities", res.Total)
	return res, nil
}

// checkQuota estimates the snapshot's storage footprint and fails with
// ErrQuotaExceeded before anything is written when it cannot fit.
func (imp *Importer) checkQuota(ctx context.Context, snap *types.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("estimate snapshot size: %w", err)
	}
	estimate := int64(len(raw))

	available, known, err := imp.quota.Available(ctx)
	if err != nil {
		// Best-effort collaborator: an unreachable quota API never blocks
		// an import.
		imp.logger.Warn("quota check unavailable, assuming sufficient space", "error", err)
		return nil
	}
	if known && estimate > available {
		return fmt.Errorf("%w: snapshot needs ~%d bytes, %d available",
			types.ErrQuotaExceeded, estimate, available)
	}
	return nil
}

// stage writes the regenerated entities under a throwaway namespace (merged
// over the live collections when mergeExisting), validates references there,
// and swaps the staged keys into the live namespace in one transaction. Any
// failure discards the staging namespace and leaves the live partition
// exactly as it was. Routing merge through the same staged swap is what
// guarantees a partition never holds a dangling required reference after a
// successful import of either mode.
func (imp *Importer) stage(ctx context.Context, regen *types.Snapshot, mergeExisting bool) error {
	temp := "tmp" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	w := imp.ds.BulkAt(temp)

	var r *store.Reader
	if mergeExisting {
		r = imp.ds.Partition()
	}
	if err := writeSnapshot(ctx, regen, r, w, mergeExisting); err != nil {
		imp.discard(ctx, temp)
		return err
	}

	report, err := ValidateReferences(ctx, imp.ds.PartitionAt(temp))
	if err != nil {
		imp.discard(ctx, temp)
		return err
	}
	if !report.Valid {
		imp.discard(ctx, temp)
		return fmt.Errorf("%w: %s", types.ErrReferenceIntegrity, strings.Join(report.Errors, "; "))
	}

	if err := imp.ds.SwapFromTemp(ctx, temp); err != nil {
		imp.discard(ctx, temp)
		return err
	}
	return nil
}

func (imp *Importer) discard(ctx context.Context, temp string) {
	if err := imp.ds.DiscardTemp(ctx, temp); err != nil {
		imp.logger.Error("discard staged import", "prefix", temp, "error", err)
	}
}

// writeSnapshot persists every collection of regen through w. When merging,
// existing entities are read through r first and the snapshot's entities
// upserted over them; otherwise the collections are written as-is.
func writeSnapshot(ctx context.Context, regen *types.Snapshot, r *store.Reader, w *store.BulkWriter, mergeExisting bool) error {
	players := map[string]types.Player{}
	teams := map[string]types.Team{}
	rosters := map[string]types.TeamRoster{}
	seasons := map[string]types.Season{}
	tournaments := map[string]types.Tournament{}
	personnel := map[string]types.Personnel{}
	games := map[string]types.Game{}
	adjustments := map[string]types.PlayerAdjustment{}

	if mergeExisting {
		var err error
		if players, err = r.Players(ctx); err != nil {
			return err
		}
		if teams, err = r.Teams(ctx); err != nil {
			return err
		}
		if rosters, err = r.TeamRosters(ctx); err != nil {
			return err
		}
		if seasons, err = r.Seasons(ctx); err != nil {
			return err
		}
		if tournaments, err = r.Tournaments(ctx); err != nil {
			return err
		}
		if personnel, err = r.Personnel(ctx); err != nil {
			return err
		}
		if games, err = r.Games(ctx); err != nil {
			return err
		}
		if adjustments, err = r.PlayerAdjustments(ctx); err != nil {
			return err
		}
	}

	for _, p := range regen.Players {
		players[p.ID] = p
	}
	for _, t := range regen.Teams {
		teams[t.ID] = t
	}
	for teamID, roster := range regen.TeamRosters {
		rosters[teamID] = roster
	}
	for _, s := range regen.Seasons {
		seasons[s.ID] = s
	}
	for _, t := range regen.Tournaments {
		tournaments[t.ID] = t
	}
	for _, p := range regen.Personnel {
		personnel[p.ID] = p
	}
	for _, g := range regen.Games {
		games[g.ID] = g
	}
	for _, a := range regen.PlayerAdjustments {
		adjustments[a.ID] = a
	}

	if err := w.PutPlayers(ctx, players); err != nil {
		return err
	}
	if err := w.PutTeams(ctx, teams); err != nil {
		return err
	}
	if err := w.PutTeamRosters(ctx, rosters); err != nil {
		return err
	}
	if err := w.PutSeasons(ctx, seasons); err != nil {
		return err
	}
	if err := w.PutTournaments(ctx, tournaments); err != nil {
		return err
	}
	if err := w.PutPersonnel(ctx, personnel); err != nil {
		return err
	}
	if err := w.PutGames(ctx, games); err != nil {
		return err
	}
	if err := w.PutPlayerAdjustments(ctx, adjustments); err != nil {
		return err
	}
	plan := regen.WarmupPlan
	if plan == nil && mergeExisting {
		// Merging a snapshot without a warmup plan keeps the live one.
		var err error
		if plan, err = r.WarmupPlan(ctx); err != nil {
			return err
		}
	}
	if plan != nil {
		if err := w.PutWarmupPlan(ctx, *plan); err != nil {
			return err
		}
	}
	return w.PutSettings(ctx, regen.Settings)
}

func countResult(snap *types.Snapshot) Result {
	counts := map[string]int{
		"players":           len(snap.Players),
		"teams":             len(snap.Teams),
		"teamRosters":       len(snap.TeamRosters),
		"seasons":           len(snap.Seasons),
		"tournaments":       len(snap.Tournaments),
		"personnel":         len(snap.Personnel),
		"games":             len(snap.Games),
		"playerAdjustments": len(snap.PlayerAdjustments),
	}
	if snap.WarmupPlan != nil {
		counts["warmupPlan"] = 1
	}
	res := Result{Counts: counts}
	for _, n := range counts {
		res.Total += n
	}
	return res
}
