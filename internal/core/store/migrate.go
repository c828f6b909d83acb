package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS simulation_cache (
		cache_key   TEXT PRIMARY KEY,
		result_json TEXT NOT NULL,
		stored_at   INTEGER NOT NULL,
		expires_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_simulation_cache_expires ON simulation_cache (expires_at)`,
}

// Migrate applies the schema. Statements are idempotent so repeated startup
// calls are safe.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return fmt.Errorf("store is not open")
	}
	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply store schema: %w", err)
		}
	}
	return nil
}
