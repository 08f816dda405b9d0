package store

import (
	"context"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// tournamentKey is the composite uniqueness key for tournaments.
type tournamentKey struct {
	name     string
	club     bool
	gameType string
	gender   string
	ageGroup string
}

func keyOfTournament(t types.Tournament) tournamentKey {
	return tournamentKey{t.Name, t.ClubSeason, t.GameType, t.Gender, t.AgeGroup}
}

// CreateTournament persists a new tournament, generating identifiers for
// any nested series that lack one. Fails with ErrAlreadyExists when another
// tournament carries the same composite key.
func (ds *DataStore) CreateTournament(ctx context.Context, t types.Tournament) (types.Tournament, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Tournament{}, err
	}
	if t.Name == "" {
		return types.Tournament{}, types.ErrInvalidName
	}

	tournaments, err := readCollection[types.Tournament](ctx, ds, keyTournaments)
	if err != nil {
		return types.Tournament{}, err
	}
	for _, existing := range tournaments {
		if keyOfTournament(existing) == keyOfTournament(t) {
			return types.Tournament{}, types.ErrAlreadyExists
		}
	}

	id, err := scope.GenerateID(types.EntityTournament, ds.principalID)
	if err != nil {
		return types.Tournament{}, err
	}
	t.ID = id
	for i := range t.Series {
		if t.Series[i].ID == "" {
			sid, err := scope.GenerateID(types.EntitySeries, ds.principalID, i)
			if err != nil {
				return types.Tournament{}, err
			}
			t.Series[i].ID = sid
		}
	}

	tournaments[t.ID] = t
	if err := writeCollection(ctx, ds, keyTournaments, tournaments); err != nil {
		return types.Tournament{}, err
	}
	if err := ds.enqueue(ctx, types.OpCreate, types.EntityTournament, t.ID, t); err != nil {
		return types.Tournament{}, err
	}
	return t, nil
}

// UpdateTournament replaces an existing tournament, re-checking uniqueness
// and assigning identifiers to newly added series.
func (ds *DataStore) UpdateTournament(ctx context.Context, t types.Tournament) (types.Tournament, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Tournament{}, err
	}

	tournaments, err := readCollection[types.Tournament](ctx, ds, keyTournaments)
	if err != nil {
		return types.Tournament{}, err
	}
	if _, ok := tournaments[t.ID]; !ok {
		return types.Tournament{}, types.ErrNotFound
	}
	for id, existing := range tournaments {
		if id != t.ID && keyOfTournament(existing) == keyOfTournament(t) {
			return types.Tournament{}, types.ErrAlreadyExists
		}
	}
	for i := range t.Series {
		if t.Series[i].ID == "" {
			sid, err := scope.GenerateID(types.EntitySeries, ds.principalID, i)
			if err != nil {
				return types.Tournament{}, err
			}
			t.Series[i].ID = sid
		}
	}

	tournaments[t.ID] = t
	if err := writeCollection(ctx, ds, keyTournaments, tournaments); err != nil {
		return types.Tournament{}, err
	}
	if err := ds.enqueue(ctx, types.OpUpdate, types.EntityTournament, t.ID, t); err != nil {
		return types.Tournament{}, err
	}
	return t, nil
}

// DeleteTournament removes a tournament by ID.
func (ds *DataStore) DeleteTournament(ctx context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	tournaments, err := readCollection[types.Tournament](ctx, ds, keyTournaments)
	if err != nil {
		return err
	}
	if _, ok := tournaments[id]; !ok {
		return types.ErrNotFound
	}
	delete(tournaments, id)
	if err := writeCollection(ctx, ds, keyTournaments, tournaments); err != nil {
		return err
	}
	return ds.enqueue(ctx, types.OpDelete, types.EntityTournament, id, nil)
}

// GetTournament retrieves a tournament by ID.
func (ds *DataStore) GetTournament(ctx context.Context, id string) (types.Tournament, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Tournament{}, err
	}

	tournaments, err := readCollection[types.Tournament](ctx, ds, keyTournaments)
	if err != nil {
		return types.Tournament{}, err
	}
	t, ok := tournaments[id]
	if !ok {
		return types.Tournament{}, types.ErrNotFound
	}
	return t, nil
}

// ListTournaments returns every tournament ordered by ID.
func (ds *DataStore) ListTournaments(ctx context.Context) ([]types.Tournament, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	tournaments, err := readCollection[types.Tournament](ctx, ds, keyTournaments)
	if err != nil {
		return nil, err
	}
	return sortedValues(tournaments, func(t types.Tournament) string { return t.ID }), nil
}
