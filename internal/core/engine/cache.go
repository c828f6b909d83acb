package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aeolens/aeolens/internal/core"
)

// Cache memoizes raw adapter output. Absence is not an error; callers fall
// through to a fresh call. A hit must be indistinguishable from the value at
// the time it was stored.
type Cache interface {
	Get(ctx context.Context, key string) (*core.RawResult, bool, error)
	Set(ctx context.Context, key string, value *core.RawResult, ttl time.Duration) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (CacheStats, error)
}

// CacheStats reports cache occupancy.
type CacheStats struct {
	Size    int `json:"size"`
	MaxSize int `json:"max_size"`
}

// CacheKey builds the exact-match cache key. No fuzzy matching: the keyword
// is trimmed and lowercased but otherwise verbatim.
func CacheKey(engine core.Engine, keyword, region, language string) string {
	return strings.ToLower(fmt.Sprintf("%s:%s:%s:%s",
		engine, strings.TrimSpace(keyword), strings.TrimSpace(region), strings.TrimSpace(language)))
}

type cacheEntry struct {
	value    *core.RawResult
	expires  time.Time
	inserted time.Time
}

// MemoryCache is a bounded in-process cache. Expiry is checked at read time;
// there is no background sweep. Stored values are copied both ways so later
// mutation by either side cannot alter a cached entry.
type MemoryCache struct {
	MaxSize int
	Clock   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewMemoryCache returns a cache bounded to maxSize entries (0 means 1000).
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{MaxSize: maxSize, entries: make(map[string]cacheEntry)}
}

func (c *MemoryCache) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// Get returns the stored value when present and unexpired.
func (c *MemoryCache) Get(_ context.Context, key string) (*core.RawResult, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return cloneRawResult(entry.value), true, nil
}

// Set stores a copy of value under key. A non-positive ttl disables caching
// for the call.
func (c *MemoryCache) Set(_ context.Context, key string, value *core.RawResult, ttl time.Duration) error {
	if c == nil || value == nil || ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize() {
		c.evict(now)
	}

	c.entries[key] = cacheEntry{
		value:    cloneRawResult(value),
		expires:  now.Add(ttl),
		inserted: now,
	}
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	return nil
}

// Stats reports live (unexpired) occupancy.
func (c *MemoryCache) Stats(_ context.Context) (CacheStats, error) {
	if c == nil {
		return CacheStats{}, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	size := 0
	for _, entry := range c.entries {
		if now.Before(entry.expires) {
			size++
		}
	}
	return CacheStats{Size: size, MaxSize: c.maxSize()}, nil
}

func (c *MemoryCache) maxSize() int {
	if c.MaxSize <= 0 {
		return 1000
	}
	return c.MaxSize
}

// evict removes expired entries first, then the oldest insertion if the
// cache is still full. Caller holds the lock.
func (c *MemoryCache) evict(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxSize() {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.inserted.Before(oldest) {
			oldestKey = key
			oldest = entry.inserted
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func cloneRawResult(in *core.RawResult) *core.RawResult {
	if in == nil {
		return nil
	}
	out := &core.RawResult{
		Engine: in.Engine,
		Answer: in.Answer,
	}
	if in.Sources != nil {
		out.Sources = make([]core.SourceReference, len(in.Sources))
		copy(out.Sources, in.Sources)
		for i := range out.Sources {
			if in.Sources[i].GroundingConfidence != nil {
				conf := *in.Sources[i].GroundingConfidence
				out.Sources[i].GroundingConfidence = &conf
			}
			if in.Sources[i].XPost != nil {
				post := *in.Sources[i].XPost
				out.Sources[i].XPost = &post
			}
		}
	}
	if in.Grounding != nil {
		out.Grounding = make(map[string]any, len(in.Grounding))
		for k, v := range in.Grounding {
			out.Grounding[k] = v
		}
	}
	return out
}
