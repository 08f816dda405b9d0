package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldside/rostervault/internal/sqlite"
	"github.com/fieldside/rostervault/pkg/types"
)

// LegacyFileName is the pre-partitioning shared database: one global store,
// no namespace prefixes, written before principals existed.
const LegacyFileName = "data_legacy.db"

// PackageLegacy reads a pre-partitioning global store and packages it as a
// portable snapshot. Legacy identifiers are already unprefixed, which is
// exactly the snapshot's portable form, so migration is an ordinary import
// rather than a bespoke path.
func PackageLegacy(ctx context.Context, kv *sqlite.Store) (*types.Snapshot, error) {
	snap := &types.Snapshot{
		FormatVersion: types.SnapshotFormatVersion,
		ExportedAt:    time.Now().UTC(),
	}

	players, err := legacyColl[types.Player](ctx, kv, "players")
	if err != nil {
		return nil, err
	}
	for _, p := range sortedByID(players, func(p types.Player) string { return p.ID }) {
		snap.Players = append(snap.Players, p)
	}

	teams, err := legacyColl[types.Team](ctx, kv, "teams")
	if err != nil {
		return nil, err
	}
	for _, t := range sortedByID(teams, func(t types.Team) string { return t.ID }) {
		snap.Teams = append(snap.Teams, t)
	}

	if snap.TeamRosters, err = legacyColl[types.TeamRoster](ctx, kv, "teamRosters"); err != nil {
		return nil, err
	}

	seasons, err := legacyColl[types.Season](ctx, kv, "seasons")
	if err != nil {
		return nil, err
	}
	for _, s := range sortedByID(seasons, func(s types.Season) string { return s.ID }) {
		snap.Seasons = append(snap.Seasons, s)
	}

	tournaments, err := legacyColl[types.Tournament](ctx, kv, "tournaments")
	if err != nil {
		return nil, err
	}
	for _, t := range sortedByID(tournaments, func(t types.Tournament) string { return t.ID }) {
		snap.Tournaments = append(snap.Tournaments, t)
	}

	personnel, err := legacyColl[types.Personnel](ctx, kv, "personnel")
	if err != nil {
		return nil, err
	}
	for _, p := range sortedByID(personnel, func(p types.Personnel) string { return p.ID }) {
		snap.Personnel = append(snap.Personnel, p)
	}

	games, err := legacyColl[types.Game](ctx, kv, "games")
	if err != nil {
		return nil, err
	}
	for _, g := range sortedByID(games, func(g types.Game) string { return g.ID }) {
		snap.Games = append(snap.Games, g)
	}

	adjustments, err := legacyColl[types.PlayerAdjustment](ctx, kv, "playerAdjustments")
	if err != nil {
		return nil, err
	}
	for _, a := range sortedByID(adjustments, func(a types.PlayerAdjustment) string { return a.ID }) {
		snap.PlayerAdjustments = append(snap.PlayerAdjustments, a)
	}

	var plan types.WarmupPlan
	ok, err := legacySingleton(ctx, kv, "warmupPlan", &plan)
	if err != nil {
		return nil, err
	}
	if ok {
		snap.WarmupPlan = &plan
	}

	if _, err := legacySingleton(ctx, kv, "settings", &snap.Settings); err != nil {
		return nil, err
	}

	return snap, nil
}

// MigrateLegacy packages the legacy global store and runs it through the
// standard import pipeline for this importer's principal.
func (imp *Importer) MigrateLegacy(ctx context.Context, legacy *sqlite.Store, mode Mode) (Result, error) {
	snap, err := PackageLegacy(ctx, legacy)
	if err != nil {
		return Result{}, fmt.Errorf("package legacy store: %w", err)
	}
	res, err := imp.Import(ctx, snap, mode)
	if err != nil {
		return Result{}, err
	}
	imp.logger.Info("legacy store migrated", "entities", res.Total)
	return res, nil
}

func legacyColl[T any](ctx context.Context, kv *sqlite.Store, key string) (map[string]T, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, types.ErrNotFound) {
		return map[string]T{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: legacy %s: %v", types.ErrInvalidFormat, key, err)
	}
	return out, nil
}

func legacySingleton[T any](ctx context.Context, kv *sqlite.Store, key string, out *T) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: legacy %s: %v", types.ErrInvalidFormat, key, err)
	}
	return true, nil
}
