package store

import (
	"context"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// teamKey is the composite uniqueness key for teams: two teams may share a
// name as long as they differ in binding or game type.
type teamKey struct {
	name, seasonID, tournamentID, seriesID, gameType string
}

func keyOfTeam(t types.Team) teamKey {
	return teamKey{t.Name, t.BoundSeasonID, t.BoundTournamentID, t.BoundSeriesID, t.GameType}
}

// CreateTeam persists a new team. Fails with ErrAlreadyExists when another
// team carries the same composite key.
func (ds *DataStore) CreateTeam(ctx context.Context, t types.Team) (types.Team, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Team{}, err
	}
	if t.Name == "" {
		return types.Team{}, types.ErrInvalidName
	}

	teams, err := readCollection[types.Team](ctx, ds, keyTeams)
	if err != nil {
		return types.Team{}, err
	}
	for _, existing := range teams {
		if keyOfTeam(existing) == keyOfTeam(t) {
			return types.Team{}, types.ErrAlreadyExists
		}
	}

	id, err := scope.GenerateID(types.EntityTeam, ds.principalID)
	if err != nil {
		return types.Team{}, err
	}
	t.ID = id
	teams[t.ID] = t
	if err := writeCollection(ctx, ds, keyTeams, teams); err != nil {
		return types.Team{}, err
	}
	if err := ds.enqueue(ctx, types.OpCreate, types.EntityTeam, t.ID, t); err != nil {
		return types.Team{}, err
	}
	return t, nil
}

// UpdateTeam replaces an existing team, re-checking composite uniqueness
// against every other team.
func (ds *DataStore) UpdateTeam(ctx context.Context, t types.Team) (types.Team, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Team{}, err
	}

	teams, err := readCollection[types.Team](ctx, ds, keyTeams)
	if err != nil {
		return types.Team{}, err
	}
	if _, ok := teams[t.ID]; !ok {
		return types.Team{}, types.ErrNotFound
	}
	for id, existing := range teams {
		if id != t.ID && keyOfTeam(existing) == keyOfTeam(t) {
			return types.Team{}, types.ErrAlreadyExists
		}
	}
	teams[t.ID] = t
	if err := writeCollection(ctx, ds, keyTeams, teams); err != nil {
		return types.Team{}, err
	}
	if err := ds.enqueue(ctx, types.OpUpdate, types.EntityTeam, t.ID, t); err != nil {
		return types.Team{}, err
	}
	return t, nil
}

// DeleteTeam removes a team and its roster.
func (ds *DataStore) DeleteTeam(ctx context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	teams, err := readCollection[types.Team](ctx, ds, keyTeams)
	if err != nil {
		return err
	}
	if _, ok := teams[id]; !ok {
		return types.ErrNotFound
	}
	delete(teams, id)
	if err := writeCollection(ctx, ds, keyTeams, teams); err != nil {
		return err
	}

	rosters, err := readCollection[types.TeamRoster](ctx, ds, keyTeamRosters)
	if err != nil {
		return err
	}
	if _, ok := rosters[id]; ok {
		delete(rosters, id)
		if err := writeCollection(ctx, ds, keyTeamRosters, rosters); err != nil {
			return err
		}
		if err := ds.enqueue(ctx, types.OpDelete, syncTypeTeamRoster, id, nil); err != nil {
			return err
		}
	}

	return ds.enqueue(ctx, types.OpDelete, types.EntityTeam, id, nil)
}

// GetTeam retrieves a team by ID.
func (ds *DataStore) GetTeam(ctx context.Context, id string) (types.Team, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Team{}, err
	}

	teams, err := readCollection[types.Team](ctx, ds, keyTeams)
	if err != nil {
		return types.Team{}, err
	}
	t, ok := teams[id]
	if !ok {
		return types.Team{}, types.ErrNotFound
	}
	return t, nil
}

// ListTeams returns every team ordered by ID.
func (ds *DataStore) ListTeams(ctx context.Context) ([]types.Team, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	teams, err := readCollection[types.Team](ctx, ds, keyTeams)
	if err != nil {
		return nil, err
	}
	return sortedValues(teams, func(t types.Team) string { return t.ID }), nil
}

// SaveTeamRoster stores the membership collection for a team, replacing any
// previous roster.
func (ds *DataStore) SaveTeamRoster(ctx context.Context, roster types.TeamRoster) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	teams, err := readCollection[types.Team](ctx, ds, keyTeams)
	if err != nil {
		return err
	}
	if _, ok := teams[roster.TeamID]; !ok {
		return types.ErrNotFound
	}

	rosters, err := readCollection[types.TeamRoster](ctx, ds, keyTeamRosters)
	if err != nil {
		return err
	}
	rosters[roster.TeamID] = roster
	if err := writeCollection(ctx, ds, keyTeamRosters, rosters); err != nil {
		return err
	}
	return ds.enqueue(ctx, types.OpUpdate, syncTypeTeamRoster, roster.TeamID, roster)
}

// GetTeamRoster retrieves a team's roster. An absent roster yields an empty
// one rather than ErrNotFound: a team with no memberships is a valid state.
func (ds *DataStore) GetTeamRoster(ctx context.Context, teamID string) (types.TeamRoster, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.TeamRoster{}, err
	}

	rosters, err := readCollection[types.TeamRoster](ctx, ds, keyTeamRosters)
	if err != nil {
		return types.TeamRoster{}, err
	}
	roster, ok := rosters[teamID]
	if !ok {
		return types.TeamRoster{TeamID: teamID}, nil
	}
	return roster, nil
}
