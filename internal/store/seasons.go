package store

import (
	"context"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// seasonKey is the composite uniqueness key for seasons.
type seasonKey struct {
	name     string
	club     bool
	gameType string
	gender   string
	ageGroup string
	leagueID string
}

func keyOfSeason(s types.Season) seasonKey {
	return seasonKey{s.Name, s.ClubSeason, s.GameType, s.Gender, s.AgeGroup, s.LeagueID}
}

// CreateSeason persists a new season. Fails with ErrAlreadyExists when
// another season carries the same composite key.
func (ds *DataStore) CreateSeason(ctx context.Context, s types.Season) (types.Season, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Season{}, err
	}
	if s.Name == "" {
		return types.Season{}, types.ErrInvalidName
	}

	seasons, err := readCollection[types.Season](ctx, ds, keySeasons)
	if err != nil {
		return types.Season{}, err
	}
	for _, existing := range seasons {
		if keyOfSeason(existing) == keyOfSeason(s) {
			return types.Season{}, types.ErrAlreadyExists
		}
	}

	id, err := scope.GenerateID(types.EntitySeason, ds.principalID)
	if err != nil {
		return types.Season{}, err
	}
	s.ID = id
	seasons[s.ID] = s
	if err := writeCollection(ctx, ds, keySeasons, seasons); err != nil {
		return types.Season{}, err
	}
	if err := ds.enqueue(ctx, types.OpCreate, types.EntitySeason, s.ID, s); err != nil {
		return types.Season{}, err
	}
	return s, nil
}

// UpdateSeason replaces an existing season, re-checking uniqueness.
func (ds *DataStore) UpdateSeason(ctx context.Context, s types.Season) (types.Season, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Season{}, err
	}

	seasons, err := readCollection[types.Season](ctx, ds, keySeasons)
	if err != nil {
		return types.Season{}, err
	}
	if _, ok := seasons[s.ID]; !ok {
		return types.Season{}, types.ErrNotFound
	}
	for id, existing := range seasons {
		if id != s.ID && keyOfSeason(existing) == keyOfSeason(s) {
			return types.Season{}, types.ErrAlreadyExists
		}
	}
	seasons[s.ID] = s
	if err := writeCollection(ctx, ds, keySeasons, seasons); err != nil {
		return types.Season{}, err
	}
	if err := ds.enqueue(ctx, types.OpUpdate, types.EntitySeason, s.ID, s); err != nil {
		return types.Season{}, err
	}
	return s, nil
}

// DeleteSeason removes a season by ID.
func (ds *DataStore) DeleteSeason(ctx context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	seasons, err := readCollection[types.Season](ctx, ds, keySeasons)
	if err != nil {
		return err
	}
	if _, ok := seasons[id]; !ok {
		return types.ErrNotFound
	}
	delete(seasons, id)
	if err := writeCollection(ctx, ds, keySeasons, seasons); err != nil {
		return err
	}
	return ds.enqueue(ctx, types.OpDelete, types.EntitySeason, id, nil)
}

// GetSeason retrieves a season by ID.
func (ds *DataStore) GetSeason(ctx context.Context, id string) (types.Season, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Season{}, err
	}

	seasons, err := readCollection[types.Season](ctx, ds, keySeasons)
	if err != nil {
		return types.Season{}, err
	}
	s, ok := seasons[id]
	if !ok {
		return types.Season{}, types.ErrNotFound
	}
	return s, nil
}

// ListSeasons returns every season ordered by ID.
func (ds *DataStore) ListSeasons(ctx context.Context) ([]types.Season, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	seasons, err := readCollection[types.Season](ctx, ds, keySeasons)
	if err != nil {
		return nil, err
	}
	return sortedValues(seasons, func(s types.Season) string { return s.ID }), nil
}
