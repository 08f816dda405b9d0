// Package backup implements portable snapshot export and import. Exported
// snapshots carry no namespace prefixes; import regenerates every identifier
// into the importing principal's namespace and rewrites all cross-entity
// references, so a snapshot moves cleanly between principals. Imports of
// either mode stage into a temporary namespace, validate references there,
// and swap atomically.
package backup

import (
	"context"
	"sort"
	"time"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/internal/store"
	"github.com/fieldside/rostervault/pkg/types"
)

// strip converts one identifier to portable form, tolerating empty optional
// references.
func strip(id string) string {
	if id == "" {
		return ""
	}
	return scope.StripPrefix(id)
}

func stripSlice(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strip(id)
	}
	return out
}

func stripKeys[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strip(k)] = v
	}
	return out
}

// Export reads the principal's full partition and returns it in portable
// form: every identifier and cross-reference field has its namespace prefix
// stripped.
func Export(ctx context.Context, r *store.Reader) (*types.Snapshot, error) {
	snap := &types.Snapshot{
		FormatVersion: types.SnapshotFormatVersion,
		ExportedAt:    time.Now().UTC(),
	}

	players, err := r.Players(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range sortedByID(players, func(p types.Player) string { return p.ID }) {
		p.ID = strip(p.ID)
		snap.Players = append(snap.Players, p)
	}

	teams, err := r.Teams(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range sortedByID(teams, func(t types.Team) string { return t.ID }) {
		t.ID = strip(t.ID)
		t.BoundSeasonID = strip(t.BoundSeasonID)
		t.BoundTournamentID = strip(t.BoundTournamentID)
		t.BoundSeriesID = strip(t.BoundSeriesID)
		snap.Teams = append(snap.Teams, t)
	}

	rosters, err := r.TeamRosters(ctx)
	if err != nil {
		return nil, err
	}
	snap.TeamRosters = make(map[string]types.TeamRoster, len(rosters))
	for teamID, roster := range rosters {
		roster.TeamID = strip(roster.TeamID)
		entries := make([]types.RosterEntry, len(roster.Entries))
		for i, e := range roster.Entries {
			e.PlayerID = strip(e.PlayerID)
			entries[i] = e
		}
		roster.Entries = entries
		snap.TeamRosters[strip(teamID)] = roster
	}

	seasons, err := r.Seasons(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sortedByID(seasons, func(s types.Season) string { return s.ID }) {
		s.ID = strip(s.ID)
		s.TeamPlacements = stripKeys(s.TeamPlacements)
		snap.Seasons = append(snap.Seasons, s)
	}

	tournaments, err := r.Tournaments(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range sortedByID(tournaments, func(t types.Tournament) string { return t.ID }) {
		t.ID = strip(t.ID)
		t.AwardedPlayerID = strip(t.AwardedPlayerID)
		t.TeamPlacements = stripKeys(t.TeamPlacements)
		series := make([]types.TournamentSeries, len(t.Series))
		for i, s := range t.Series {
			s.ID = strip(s.ID)
			series[i] = s
		}
		t.Series = series
		snap.Tournaments = append(snap.Tournaments, t)
	}

	personnel, err := r.Personnel(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range sortedByID(personnel, func(p types.Personnel) string { return p.ID }) {
		p.ID = strip(p.ID)
		snap.Personnel = append(snap.Personnel, p)
	}

	games, err := r.Games(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range sortedByID(games, func(g types.Game) string { return g.ID }) {
		snap.Games = append(snap.Games, stripGame(g))
	}

	adjustments, err := r.PlayerAdjustments(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range sortedByID(adjustments, func(a types.PlayerAdjustment) string { return a.ID }) {
		a.ID = strip(a.ID)
		a.PlayerID = strip(a.PlayerID)
		a.SeasonID = strip(a.SeasonID)
		a.TeamID = strip(a.TeamID)
		a.TournamentID = strip(a.TournamentID)
		snap.PlayerAdjustments = append(snap.PlayerAdjustments, a)
	}

	plan, err := r.WarmupPlan(ctx)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		p := *plan
		p.ID = strip(p.ID)
		sections := make([]types.WarmupSection, len(p.Sections))
		for i, s := range p.Sections {
			s.ID = strip(s.ID)
			sections[i] = s
		}
		p.Sections = sections
		snap.WarmupPlan = &p
	}

	settings, err := r.Settings(ctx)
	if err != nil {
		return nil, err
	}
	settings.CurrentGameID = strip(settings.CurrentGameID)
	snap.Settings = settings

	return snap, nil
}

func stripGame(g types.Game) types.Game {
	g.ID = strip(g.ID)
	g.TeamID = strip(g.TeamID)
	g.SeasonID = strip(g.SeasonID)
	g.TournamentID = strip(g.TournamentID)
	g.SeriesID = strip(g.SeriesID)

	onField := make([]types.GamePlayer, len(g.PlayersOnField))
	for i, p := range g.PlayersOnField {
		p.ID = strip(p.ID)
		onField[i] = p
	}
	g.PlayersOnField = onField

	available := make([]types.GamePlayer, len(g.AvailablePlayers))
	for i, p := range g.AvailablePlayers {
		p.ID = strip(p.ID)
		available[i] = p
	}
	g.AvailablePlayers = available

	g.SelectedPlayerIDs = stripSlice(g.SelectedPlayerIDs)
	g.PersonnelIDs = stripSlice(g.PersonnelIDs)

	events := make([]types.GameEvent, len(g.GameEvents))
	for i, e := range g.GameEvents {
		e.ID = strip(e.ID)
		e.ScorerID = strip(e.ScorerID)
		e.AssisterID = strip(e.AssisterID)
		e.EntityID = strip(e.EntityID)
		events[i] = e
	}
	g.GameEvents = events

	g.Assessments = stripKeys(g.Assessments)
	return g
}

// sortedByID orders a collection's values by ID so exports are
// deterministic.
func sortedByID[T any](coll map[string]T, idOf func(T) string) []T {
	out := make([]T, 0, len(coll))
	for _, v := range coll {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return idOf(out[i]) < idOf(out[j]) })
	return out
}
