package backup

import (
	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// idMap maps portable snapshot identifiers to freshly generated namespaced
// identifiers.
type idMap map[string]string

// remap translates one reference. References that were never regenerated —
// predefined constants and dangling identifiers — pass through unchanged;
// the validation pass decides whether a pass-through is acceptable.
func (m idMap) remap(id string) string {
	if mapped, ok := m[id]; ok {
		return mapped
	}
	return id
}

func (m idMap) remapSlice(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.remap(id)
	}
	return out
}

func remapKeys[V any](m idMap, in map[string]V) map[string]V {
	if in == nil {
		return nil
	}
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[m.remap(k)] = v
	}
	return out
}

// regenerate builds a namespaced copy of a portable snapshot. Independent
// entities are regenerated first (players, teams, seasons, tournaments and
// their series, personnel, adjustments, warmup plan), then games, whose
// event identifiers are always generated fresh rather than remapped so a
// snapshot imported twice never collides with itself.
func regenerate(snap *types.Snapshot, principalID string) (*types.Snapshot, error) {
	ids := make(idMap)
	out := &types.Snapshot{
		FormatVersion: snap.FormatVersion,
		ExportedAt:    snap.ExportedAt,
	}

	gen := func(entityType, oldID string, index int) (string, error) {
		newID, err := scope.GenerateID(entityType, principalID, index)
		if err != nil {
			return "", err
		}
		if oldID != "" {
			ids[oldID] = newID
		}
		return newID, nil
	}

	for i, p := range snap.Players {
		newID, err := gen(types.EntityPlayer, p.ID, i)
		if err != nil {
			return nil, err
		}
		p.ID = newID
		out.Players = append(out.Players, p)
	}

	for i, s := range snap.Seasons {
		newID, err := gen(types.EntitySeason, s.ID, i)
		if err != nil {
			return nil, err
		}
		s.ID = newID
		out.Seasons = append(out.Seasons, s)
	}

	seriesIndex := 0
	for i, t := range snap.Tournaments {
		newID, err := gen(types.EntityTournament, t.ID, i)
		if err != nil {
			return nil, err
		}
		t.ID = newID
		series := make([]types.TournamentSeries, len(t.Series))
		for j, s := range t.Series {
			sid, err := gen(types.EntitySeries, s.ID, seriesIndex)
			if err != nil {
				return nil, err
			}
			seriesIndex++
			s.ID = sid
			series[j] = s
		}
		t.Series = series
		out.Tournaments = append(out.Tournaments, t)
	}

	for i, t := range snap.Teams {
		newID, err := gen(types.EntityTeam, t.ID, i)
		if err != nil {
			return nil, err
		}
		t.ID = newID
		out.Teams = append(out.Teams, t)
	}

	for i, p := range snap.Personnel {
		newID, err := gen(types.EntityPersonnel, p.ID, i)
		if err != nil {
			return nil, err
		}
		p.ID = newID
		out.Personnel = append(out.Personnel, p)
	}

	for i, a := range snap.PlayerAdjustments {
		newID, err := gen(types.EntityAdjustment, a.ID, i)
		if err != nil {
			return nil, err
		}
		a.ID = newID
		out.PlayerAdjustments = append(out.PlayerAdjustments, a)
	}

	if snap.WarmupPlan != nil {
		p := *snap.WarmupPlan
		newID, err := gen(types.EntityWarmup, p.ID, 0)
		if err != nil {
			return nil, err
		}
		p.ID = newID
		sections := make([]types.WarmupSection, len(p.Sections))
		for i, s := range p.Sections {
			sid, err := gen(types.EntitySection, s.ID, i)
			if err != nil {
				return nil, err
			}
			s.ID = sid
			sections[i] = s
		}
		p.Sections = sections
		out.WarmupPlan = &p
	}

	for i, g := range snap.Games {
		newID, err := gen(types.EntityGame, g.ID, i)
		if err != nil {
			return nil, err
		}
		g.ID = newID
		out.Games = append(out.Games, g)
	}

	// Second pass: every Reference Matrix field is rewritten through the map
	// now that all targets have their final identifiers.
	for i := range out.Teams {
		t := &out.Teams[i]
		t.BoundSeasonID = ids.remap(t.BoundSeasonID)
		t.BoundTournamentID = ids.remap(t.BoundTournamentID)
		t.BoundSeriesID = ids.remap(t.BoundSeriesID)
	}
	for i := range out.Seasons {
		out.Seasons[i].TeamPlacements = remapKeys(ids, out.Seasons[i].TeamPlacements)
	}
	for i := range out.Tournaments {
		t := &out.Tournaments[i]
		t.AwardedPlayerID = ids.remap(t.AwardedPlayerID)
		t.TeamPlacements = remapKeys(ids, t.TeamPlacements)
	}
	for i := range out.PlayerAdjustments {
		a := &out.PlayerAdjustments[i]
		a.PlayerID = ids.remap(a.PlayerID)
		a.SeasonID = ids.remap(a.SeasonID)
		a.TeamID = ids.remap(a.TeamID)
		a.TournamentID = ids.remap(a.TournamentID)
	}

	out.TeamRosters = make(map[string]types.TeamRoster, len(snap.TeamRosters))
	for teamID, roster := range snap.TeamRosters {
		roster.TeamID = ids.remap(roster.TeamID)
		entries := make([]types.RosterEntry, len(roster.Entries))
		for i, e := range roster.Entries {
			e.PlayerID = ids.remap(e.PlayerID)
			entries[i] = e
		}
		roster.Entries = entries
		out.TeamRosters[ids.remap(teamID)] = roster
	}

	eventIndex := 0
	for i := range out.Games {
		g := &out.Games[i]
		g.TeamID = ids.remap(g.TeamID)
		g.SeasonID = ids.remap(g.SeasonID)
		g.TournamentID = ids.remap(g.TournamentID)
		g.SeriesID = ids.remap(g.SeriesID)

		onField := make([]types.GamePlayer, len(g.PlayersOnField))
		for j, p := range g.PlayersOnField {
			p.ID = ids.remap(p.ID)
			onField[j] = p
		}
		g.PlayersOnField = onField

		available := make([]types.GamePlayer, len(g.AvailablePlayers))
		for j, p := range g.AvailablePlayers {
			p.ID = ids.remap(p.ID)
			available[j] = p
		}
		g.AvailablePlayers = available

		g.SelectedPlayerIDs = ids.remapSlice(g.SelectedPlayerIDs)
		g.PersonnelIDs = ids.remapSlice(g.PersonnelIDs)
		g.Assessments = remapKeys(ids, g.Assessments)

		events := make([]types.GameEvent, len(g.GameEvents))
		for j, e := range g.GameEvents {
			eid, err := scope.GenerateID(types.EntityEvent, principalID, eventIndex)
			if err != nil {
				return nil, err
			}
			eventIndex++
			e.ID = eid
			e.ScorerID = ids.remap(e.ScorerID)
			e.AssisterID = ids.remap(e.AssisterID)
			e.EntityID = ids.remap(e.EntityID)
			events[j] = e
		}
		g.GameEvents = events
	}

	out.Settings = snap.Settings
	out.Settings.CurrentGameID = ids.remap(out.Settings.CurrentGameID)

	return out, nil
}
