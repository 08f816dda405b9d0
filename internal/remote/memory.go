package remote

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fieldside/rostervault/pkg/types"
)

type memKey struct {
	principalID, entityType, entityID string
}

// MemoryStore is an in-process Store used by tests and by the sync engine's
// dry-run mode. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[memKey]Record

	// FailWith, when set, is returned from every call. Tests use it to
	// simulate transient outages and expired credentials.
	FailWith error
}

// NewMemoryStore creates an empty in-process replica.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memKey]Record)}
}

func (s *MemoryStore) Upsert(_ context.Context, principalID, entityType, entityID string, payload json.RawMessage, updatedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.records[memKey{principalID, entityType, entityID}] = Record{
		Payload:   append(json.RawMessage(nil), payload...),
		UpdatedAt: updatedAt,
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, principalID, entityType, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	delete(s.records, memKey{principalID, entityType, entityID})
	return nil
}

func (s *MemoryStore) Fetch(_ context.Context, principalID, entityType, entityID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return Record{}, s.FailWith
	}
	rec, ok := s.records[memKey{principalID, entityType, entityID}]
	if !ok {
		return Record{}, types.ErrNotFound
	}
	return rec, nil
}

// Fail makes every subsequent call return err; Fail(nil) restores service.
func (s *MemoryStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailWith = err
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns the record for one entity without the error contract, for test
// assertions.
func (s *MemoryStore) Get(principalID, entityType, entityID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[memKey{principalID, entityType, entityID}]
	return rec, ok
}
