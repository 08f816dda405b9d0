package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fieldside/rostervault/pkg/types"
)

// pgSchema holds one row per (principal, entity type, entity). Principal
// scoping is structural: the principal is part of the primary key and every
// statement filters on it.
const pgSchema = `
CREATE TABLE IF NOT EXISTS entity_records (
	principal_id TEXT NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	payload      JSONB,
	updated_at   BIGINT NOT NULL,
	PRIMARY KEY (principal_id, entity_type, entity_id)
)`

// PostgresStore is a Postgres-backed replica for self-hosted deployments.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres replica: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres replica: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply replica schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, principalID, entityType, entityID string, payload json.RawMessage, updatedAt int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entity_records (principal_id, entity_type, entity_id, payload, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (principal_id, entity_type, entity_id)
		 DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		principalID, entityType, entityID, []byte(payload), updatedAt)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", entityType, entityID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, principalID, entityType, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entity_records
		 WHERE principal_id = $1 AND entity_type = $2 AND entity_id = $3`,
		principalID, entityType, entityID)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", entityType, entityID, err)
	}
	return nil
}

func (s *PostgresStore) Fetch(ctx context.Context, principalID, entityType, entityID string) (Record, error) {
	var rec Record
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM entity_records
		 WHERE principal_id = $1 AND entity_type = $2 AND entity_id = $3`,
		principalID, entityType, entityID).Scan(&payload, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, types.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("fetch %s/%s: %w", entityType, entityID, err)
	}
	rec.Payload = payload
	return rec, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
