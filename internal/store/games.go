package store

import (
	"context"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// CreateGame persists a new game, generating identifiers for the game and
// for any events that lack one.
func (ds *DataStore) CreateGame(ctx context.Context, g types.Game) (types.Game, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Game{}, err
	}

	id, err := scope.GenerateID(types.EntityGame, ds.principalID)
	if err != nil {
		return types.Game{}, err
	}
	g.ID = id
	if err := ds.fillEventIDs(&g); err != nil {
		return types.Game{}, err
	}

	games, err := readCollection[types.Game](ctx, ds, keyGames)
	if err != nil {
		return types.Game{}, err
	}
	games[g.ID] = g
	if err := writeCollection(ctx, ds, keyGames, games); err != nil {
		return types.Game{}, err
	}
	if err := ds.enqueue(ctx, types.OpCreate, types.EntityGame, g.ID, g); err != nil {
		return types.Game{}, err
	}
	return g, nil
}

// UpdateGame replaces an existing game, assigning identifiers to newly
// recorded events.
func (ds *DataStore) UpdateGame(ctx context.Context, g types.Game) (types.Game, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Game{}, err
	}

	games, err := readCollection[types.Game](ctx, ds, keyGames)
	if err != nil {
		return types.Game{}, err
	}
	if _, ok := games[g.ID]; !ok {
		return types.Game{}, types.ErrNotFound
	}
	if err := ds.fillEventIDs(&g); err != nil {
		return types.Game{}, err
	}
	games[g.ID] = g
	if err := writeCollection(ctx, ds, keyGames, games); err != nil {
		return types.Game{}, err
	}
	if err := ds.enqueue(ctx, types.OpUpdate, types.EntityGame, g.ID, g); err != nil {
		return types.Game{}, err
	}
	return g, nil
}

// DeleteGame removes a game. If settings point at the game as current, the
// reference is cleared rather than left dangling.
func (ds *DataStore) DeleteGame(ctx context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	games, err := readCollection[types.Game](ctx, ds, keyGames)
	if err != nil {
		return err
	}
	if _, ok := games[id]; !ok {
		return types.ErrNotFound
	}
	delete(games, id)
	if err := writeCollection(ctx, ds, keyGames, games); err != nil {
		return err
	}

	var settings types.Settings
	if ok, err := readSingleton(ctx, ds, keySettings, &settings); err != nil {
		return err
	} else if ok && settings.CurrentGameID == id {
		settings.CurrentGameID = ""
		if err := writeSingleton(ctx, ds, keySettings, settings); err != nil {
			return err
		}
		if err := ds.enqueue(ctx, types.OpUpdate, syncTypeSettings, ds.prefix, settings); err != nil {
			return err
		}
	}

	return ds.enqueue(ctx, types.OpDelete, types.EntityGame, id, nil)
}

// GetGame retrieves a game by ID.
func (ds *DataStore) GetGame(ctx context.Context, id string) (types.Game, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Game{}, err
	}

	games, err := readCollection[types.Game](ctx, ds, keyGames)
	if err != nil {
		return types.Game{}, err
	}
	g, ok := games[id]
	if !ok {
		return types.Game{}, types.ErrNotFound
	}
	return g, nil
}

// ListGames returns every game ordered by ID.
func (ds *DataStore) ListGames(ctx context.Context) ([]types.Game, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	games, err := readCollection[types.Game](ctx, ds, keyGames)
	if err != nil {
		return nil, err
	}
	return sortedValues(games, func(g types.Game) string { return g.ID }), nil
}

// fillEventIDs assigns a namespaced identifier to every event missing one.
// The index argument disambiguates events recorded within the same
// millisecond.
func (ds *DataStore) fillEventIDs(g *types.Game) error {
	for i := range g.GameEvents {
		if g.GameEvents[i].ID != "" {
			continue
		}
		eid, err := scope.GenerateID(types.EntityEvent, ds.principalID, i)
		if err != nil {
			return err
		}
		g.GameEvents[i].ID = eid
	}
	return nil
}
