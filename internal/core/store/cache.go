package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/engine"
)

// Cache is the durable counterpart of engine.MemoryCache. Entries survive
// process restarts; expiry is enforced in the SELECT so a stale row is never
// served even before it is vacuumed.
type Cache struct {
	store   *Store
	MaxSize int
	Clock   func() time.Time
}

// NewCache wraps an open store as an engine.Cache. maxSize bounds occupancy
// the same way MemoryCache does (0 means 1000).
func NewCache(s *Store, maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Cache{store: s, MaxSize: maxSize}
}

var _ engine.Cache = (*Cache)(nil)

func (c *Cache) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// Get returns the stored result when present and unexpired.
func (c *Cache) Get(ctx context.Context, key string) (*core.RawResult, bool, error) {
	if c == nil || c.store == nil || c.store.DB == nil {
		return nil, false, nil
	}

	var payload string
	err := c.store.DB.QueryRowContext(ctx,
		`SELECT result_json FROM simulation_cache WHERE cache_key = ? AND expires_at > ?`,
		key, c.now().UnixMilli(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read simulation cache: %w", err)
	}

	var result core.RawResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

// Set stores the result under key. A non-positive ttl disables caching for
// the call. When the cache is full, expired rows go first, then the oldest
// insertion.
func (c *Cache) Set(ctx context.Context, key string, value *core.RawResult, ttl time.Duration) error {
	if c == nil || c.store == nil || c.store.DB == nil || value == nil || ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode result for cache: %w", err)
	}

	now := c.now()
	if err := c.evict(ctx, key, now); err != nil {
		return err
	}

	_, err = c.store.DB.ExecContext(ctx,
		`INSERT INTO simulation_cache (cache_key, result_json, stored_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET
		   result_json = excluded.result_json,
		   stored_at   = excluded.stored_at,
		   expires_at  = excluded.expires_at`,
		key, string(payload), now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write simulation cache: %w", err)
	}
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if c == nil || c.store == nil || c.store.DB == nil {
		return nil
	}
	if _, err := c.store.DB.ExecContext(ctx, `DELETE FROM simulation_cache`); err != nil {
		return fmt.Errorf("clear simulation cache: %w", err)
	}
	return nil
}

// Stats reports live (unexpired) occupancy.
func (c *Cache) Stats(ctx context.Context) (engine.CacheStats, error) {
	if c == nil || c.store == nil || c.store.DB == nil {
		return engine.CacheStats{}, nil
	}

	var size int
	err := c.store.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM simulation_cache WHERE expires_at > ?`,
		c.now().UnixMilli(),
	).Scan(&size)
	if err != nil {
		return engine.CacheStats{}, fmt.Errorf("count simulation cache: %w", err)
	}
	return engine.CacheStats{Size: size, MaxSize: c.maxSize()}, nil
}

func (c *Cache) maxSize() int {
	if c.MaxSize <= 0 {
		return 1000
	}
	return c.MaxSize
}

// evict makes room for key. Rows already expired are removed first; if the
// cache is still full the oldest insertion is dropped. An update of an
// existing key never triggers eviction.
func (c *Cache) evict(ctx context.Context, key string, now time.Time) error {
	var exists int
	err := c.store.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM simulation_cache WHERE cache_key = ?`, key,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("probe simulation cache: %w", err)
	}
	if exists > 0 {
		return nil
	}

	var total int
	if err := c.store.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM simulation_cache`,
	).Scan(&total); err != nil {
		return fmt.Errorf("count simulation cache: %w", err)
	}
	if total < c.maxSize() {
		return nil
	}

	if _, err := c.store.DB.ExecContext(ctx,
		`DELETE FROM simulation_cache WHERE expires_at <= ?`, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("evict expired cache rows: %w", err)
	}

	if err := c.store.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM simulation_cache`,
	).Scan(&total); err != nil {
		return fmt.Errorf("count simulation cache: %w", err)
	}
	if total < c.maxSize() {
		return nil
	}

	overflow := total - c.maxSize() + 1
	if _, err := c.store.DB.ExecContext(ctx,
		`DELETE FROM simulation_cache WHERE cache_key IN (
		   SELECT cache_key FROM simulation_cache ORDER BY stored_at ASC LIMIT ?
		 )`, overflow,
	); err != nil {
		return fmt.Errorf("evict oldest cache rows: %w", err)
	}
	return nil
}
