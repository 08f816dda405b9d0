package store

import (
	"context"
	"fmt"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// CreatePlayer generates a namespaced ID, persists the player, and enqueues
// a create operation.
func (ds *DataStore) CreatePlayer(ctx context.Context, p types.Player) (types.Player, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Player{}, err
	}
	if p.Name == "" {
		return types.Player{}, types.ErrInvalidName
	}

	id, err := scope.GenerateID(types.EntityPlayer, ds.principalID)
	if err != nil {
		return types.Player{}, err
	}
	p.ID = id

	players, err := readCollection[types.Player](ctx, ds, keyPlayers)
	if err != nil {
		return types.Player{}, err
	}
	players[p.ID] = p
	if err := writeCollection(ctx, ds, keyPlayers, players); err != nil {
		return types.Player{}, err
	}
	if err := ds.enqueue(ctx, types.OpCreate, types.EntityPlayer, p.ID, p); err != nil {
		return types.Player{}, err
	}
	return p, nil
}

// UpdatePlayer replaces an existing player record.
func (ds *DataStore) UpdatePlayer(ctx context.Context, p types.Player) (types.Player, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Player{}, err
	}

	players, err := readCollection[types.Player](ctx, ds, keyPlayers)
	if err != nil {
		return types.Player{}, err
	}
	if _, ok := players[p.ID]; !ok {
		return types.Player{}, types.ErrNotFound
	}
	players[p.ID] = p
	if err := writeCollection(ctx, ds, keyPlayers, players); err != nil {
		return types.Player{}, err
	}
	if err := ds.enqueue(ctx, types.OpUpdate, types.EntityPlayer, p.ID, p); err != nil {
		return types.Player{}, err
	}
	return p, nil
}

// DeletePlayer removes a player and its roster memberships.
func (ds *DataStore) DeletePlayer(ctx context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	players, err := readCollection[types.Player](ctx, ds, keyPlayers)
	if err != nil {
		return err
	}
	if _, ok := players[id]; !ok {
		return types.ErrNotFound
	}
	delete(players, id)
	if err := writeCollection(ctx, ds, keyPlayers, players); err != nil {
		return err
	}

	// Drop the player from every roster rather than leaving dangling
	// membership records.
	rosters, err := readCollection[types.TeamRoster](ctx, ds, keyTeamRosters)
	if err != nil {
		return err
	}
	rostersChanged := false
	for teamID, roster := range rosters {
		kept := roster.Entries[:0]
		for _, e := range roster.Entries {
			if e.PlayerID != id {
				kept = append(kept, e)
			}
		}
		if len(kept) != len(roster.Entries) {
			roster.Entries = kept
			rosters[teamID] = roster
			rostersChanged = true
			if err := ds.enqueue(ctx, types.OpUpdate, syncTypeTeamRoster, teamID, roster); err != nil {
				return err
			}
		}
	}
	if rostersChanged {
		if err := writeCollection(ctx, ds, keyTeamRosters, rosters); err != nil {
			return err
		}
	}

	return ds.enqueue(ctx, types.OpDelete, types.EntityPlayer, id, nil)
}

// GetPlayer retrieves a player by ID.
func (ds *DataStore) GetPlayer(ctx context.Context, id string) (types.Player, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Player{}, err
	}

	players, err := readCollection[types.Player](ctx, ds, keyPlayers)
	if err != nil {
		return types.Player{}, err
	}
	p, ok := players[id]
	if !ok {
		return types.Player{}, types.ErrNotFound
	}
	return p, nil
}

// ListPlayers returns every player ordered by ID.
func (ds *DataStore) ListPlayers(ctx context.Context) ([]types.Player, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	players, err := readCollection[types.Player](ctx, ds, keyPlayers)
	if err != nil {
		return nil, err
	}
	return sortedValues(players, func(p types.Player) string { return p.ID }), nil
}

// CreatePlayerAdjustment persists a statistics adjustment for a player.
func (ds *DataStore) CreatePlayerAdjustment(ctx context.Context, a types.PlayerAdjustment) (types.PlayerAdjustment, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.PlayerAdjustment{}, err
	}
	if a.PlayerID == "" {
		return types.PlayerAdjustment{}, fmt.Errorf("%w: adjustment requires a player", types.ErrNotFound)
	}

	id, err := scope.GenerateID(types.EntityAdjustment, ds.principalID)
	if err != nil {
		return types.PlayerAdjustment{}, err
	}
	a.ID = id

	adjustments, err := readCollection[types.PlayerAdjustment](ctx, ds, keyAdjustments)
	if err != nil {
		return types.PlayerAdjustment{}, err
	}
	adjustments[a.ID] = a
	if err := writeCollection(ctx, ds, keyAdjustments, adjustments); err != nil {
		return types.PlayerAdjustment{}, err
	}
	if err := ds.enqueue(ctx, types.OpCreate, types.EntityAdjustment, a.ID, a); err != nil {
		return types.PlayerAdjustment{}, err
	}
	return a, nil
}

// DeletePlayerAdjustment removes an adjustment by ID.
func (ds *DataStore) DeletePlayerAdjustment(ctx context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	adjustments, err := readCollection[types.PlayerAdjustment](ctx, ds, keyAdjustments)
	if err != nil {
		return err
	}
	if _, ok := adjustments[id]; !ok {
		return types.ErrNotFound
	}
	delete(adjustments, id)
	if err := writeCollection(ctx, ds, keyAdjustments, adjustments); err != nil {
		return err
	}
	return ds.enqueue(ctx, types.OpDelete, types.EntityAdjustment, id, nil)
}

// ListPlayerAdjustments returns every adjustment ordered by ID.
func (ds *DataStore) ListPlayerAdjustments(ctx context.Context) ([]types.PlayerAdjustment, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	adjustments, err := readCollection[types.PlayerAdjustment](ctx, ds, keyAdjustments)
	if err != nil {
		return nil, err
	}
	return sortedValues(adjustments, func(a types.PlayerAdjustment) string { return a.ID }), nil
}
