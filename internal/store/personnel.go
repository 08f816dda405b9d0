package store

import (
	"context"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// CreatePersonnel persists a new staff member.
func (ds *DataStore) CreatePersonnel(ctx context.Context, p types.Personnel) (types.Personnel, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Personnel{}, err
	}
	if p.Name == "" {
		return types.Personnel{}, types.ErrInvalidName
	}

	id, err := scope.GenerateID(types.EntityPersonnel, ds.principalID)
	if err != nil {
		return types.Personnel{}, err
	}
	p.ID = id

	personnel, err := readCollection[types.Personnel](ctx, ds, keyPersonnel)
	if err != nil {
		return types.Personnel{}, err
	}
	personnel[p.ID] = p
	if err := writeCollection(ctx, ds, keyPersonnel, personnel); err != nil {
		return types.Personnel{}, err
	}
	if err := ds.enqueue(ctx, types.OpCreate, types.EntityPersonnel, p.ID, p); err != nil {
		return types.Personnel{}, err
	}
	return p, nil
}

// UpdatePersonnel replaces an existing staff record.
func (ds *DataStore) UpdatePersonnel(ctx context.Context, p types.Personnel) (types.Personnel, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Personnel{}, err
	}

	personnel, err := readCollection[types.Personnel](ctx, ds, keyPersonnel)
	if err != nil {
		return types.Personnel{}, err
	}
	if _, ok := personnel[p.ID]; !ok {
		return types.Personnel{}, types.ErrNotFound
	}
	personnel[p.ID] = p
	if err := writeCollection(ctx, ds, keyPersonnel, personnel); err != nil {
		return types.Personnel{}, err
	}
	if err := ds.enqueue(ctx, types.OpUpdate, types.EntityPersonnel, p.ID, p); err != nil {
		return types.Personnel{}, err
	}
	return p, nil
}

// DeletePersonnel cascades: the identifier is removed from every game's
// personnel list before the record itself is deleted, so no game is left
// with a dangling staff reference.
func (ds *DataStore) DeletePersonnel(ctx context.Context, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	personnel, err := readCollection[types.Personnel](ctx, ds, keyPersonnel)
	if err != nil {
		return err
	}
	if _, ok := personnel[id]; !ok {
		return types.ErrNotFound
	}

	games, err := readCollection[types.Game](ctx, ds, keyGames)
	if err != nil {
		return err
	}
	gamesChanged := false
	for gameID, g := range games {
		kept := g.PersonnelIDs[:0]
		for _, pid := range g.PersonnelIDs {
			if pid != id {
				kept = append(kept, pid)
			}
		}
		if len(kept) != len(g.PersonnelIDs) {
			g.PersonnelIDs = kept
			games[gameID] = g
			gamesChanged = true
			if err := ds.enqueue(ctx, types.OpUpdate, types.EntityGame, gameID, g); err != nil {
				return err
			}
		}
	}
	if gamesChanged {
		if err := writeCollection(ctx, ds, keyGames, games); err != nil {
			return err
		}
	}

	delete(personnel, id)
	if err := writeCollection(ctx, ds, keyPersonnel, personnel); err != nil {
		return err
	}
	return ds.enqueue(ctx, types.OpDelete, types.EntityPersonnel, id, nil)
}

// GetPersonnel retrieves a staff member by ID.
func (ds *DataStore) GetPersonnel(ctx context.Context, id string) (types.Personnel, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Personnel{}, err
	}

	personnel, err := readCollection[types.Personnel](ctx, ds, keyPersonnel)
	if err != nil {
		return types.Personnel{}, err
	}
	p, ok := personnel[id]
	if !ok {
		return types.Personnel{}, types.ErrNotFound
	}
	return p, nil
}

// ListPersonnel returns every staff member ordered by ID.
func (ds *DataStore) ListPersonnel(ctx context.Context) ([]types.Personnel, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return nil, err
	}

	personnel, err := readCollection[types.Personnel](ctx, ds, keyPersonnel)
	if err != nil {
		return nil, err
	}
	return sortedValues(personnel, func(p types.Personnel) string { return p.ID }), nil
}
