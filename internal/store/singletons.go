package store

import (
	"context"

	"github.com/fieldside/rostervault/internal/scope"
	"github.com/fieldside/rostervault/pkg/types"
)

// SaveWarmupPlan stores the principal's warmup plan, generating identifiers
// for the plan and for any sections that lack one.
func (ds *DataStore) SaveWarmupPlan(ctx context.Context, plan types.WarmupPlan) (types.WarmupPlan, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.WarmupPlan{}, err
	}

	if plan.ID == "" {
		id, err := scope.GenerateID(types.EntityWarmup, ds.principalID)
		if err != nil {
			return types.WarmupPlan{}, err
		}
		plan.ID = id
	}
	for i := range plan.Sections {
		if plan.Sections[i].ID == "" {
			sid, err := scope.GenerateID(types.EntitySection, ds.principalID, i)
			if err != nil {
				return types.WarmupPlan{}, err
			}
			plan.Sections[i].ID = sid
		}
	}

	if err := writeSingleton(ctx, ds, keyWarmupPlan, plan); err != nil {
		return types.WarmupPlan{}, err
	}
	if err := ds.enqueue(ctx, types.OpUpdate, syncTypeWarmupPlan, plan.ID, plan); err != nil {
		return types.WarmupPlan{}, err
	}
	return plan, nil
}

// GetWarmupPlan retrieves the principal's warmup plan.
// Returns ErrNotFound when none has been saved.
func (ds *DataStore) GetWarmupPlan(ctx context.Context) (types.WarmupPlan, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.WarmupPlan{}, err
	}

	var plan types.WarmupPlan
	ok, err := readSingleton(ctx, ds, keyWarmupPlan, &plan)
	if err != nil {
		return types.WarmupPlan{}, err
	}
	if !ok {
		return types.WarmupPlan{}, types.ErrNotFound
	}
	return plan, nil
}

// SaveSettings stores the principal's settings singleton.
func (ds *DataStore) SaveSettings(ctx context.Context, s types.Settings) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return err
	}

	if err := writeSingleton(ctx, ds, keySettings, s); err != nil {
		return err
	}
	return ds.enqueue(ctx, types.OpUpdate, syncTypeSettings, ds.prefix, s)
}

// GetSettings retrieves the principal's settings. Absent settings yield the
// zero value: a fresh partition has valid, empty settings.
func (ds *DataStore) GetSettings(ctx context.Context) (types.Settings, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.ready(); err != nil {
		return types.Settings{}, err
	}

	var s types.Settings
	if _, err := readSingleton(ctx, ds, keySettings, &s); err != nil {
		return types.Settings{}, err
	}
	return s, nil
}
