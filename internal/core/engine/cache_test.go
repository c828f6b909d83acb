package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aeolens/aeolens/internal/core"
)

func TestCacheKeyNormalization(t *testing.T) {
	key := CacheKey(core.EngineChatGPT, "  Best CRM Software  ", "US", "EN")
	require.Equal(t, "chatgpt:best crm software:us:en", key)

	// Different keywords stay different keys; no fuzzy matching.
	other := CacheKey(core.EngineChatGPT, "best crm softwares", "us", "en")
	require.NotEqual(t, key, other)
}

func TestMemoryCacheHitMatchesStoredValue(t *testing.T) {
	cache := NewMemoryCache(10)
	ctx := context.Background()

	conf := 0.9
	stored := &core.RawResult{
		Engine: core.EngineGemini,
		Answer: "Acme is a rocket company.",
		Sources: []core.SourceReference{
			{URL: "https://acme.com", Title: "Acme", GroundingConfidence: &conf},
		},
		Grounding: map[string]any{"search_enabled": true},
	}
	require.NoError(t, cache.Set(ctx, "k", stored, time.Hour))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, stored, got)
}

func TestMemoryCacheCopiesBothWays(t *testing.T) {
	cache := NewMemoryCache(10)
	ctx := context.Background()

	stored := &core.RawResult{
		Engine:  core.EngineGrok,
		Answer:  "original",
		Sources: []core.SourceReference{{URL: "https://acme.com"}},
	}
	require.NoError(t, cache.Set(ctx, "k", stored, time.Hour))

	// Mutating the caller's value after Set must not reach the cache.
	stored.Answer = "mutated"
	stored.Sources[0].URL = "https://evil.example"

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "original", got.Answer)
	require.Equal(t, "https://acme.com", got.Sources[0].URL)

	// Mutating a returned value must not reach later readers.
	got.Sources[0].URL = "https://other.example"

	again, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "https://acme.com", again.Sources[0].URL)
}

func TestMemoryCacheExpiryCheckedAtRead(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(10)
	cache.Clock = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", &core.RawResult{Answer: "a"}, time.Hour))

	now = now.Add(59 * time.Minute)
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Size)
}

func TestMemoryCacheEvictsExpiredBeforeOldest(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(2)
	cache.Clock = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", &core.RawResult{Answer: "s"}, time.Minute))
	now = now.Add(time.Second)
	require.NoError(t, cache.Set(ctx, "long", &core.RawResult{Answer: "l"}, time.Hour))

	// "short" is expired by insertion time of the third entry, so it goes
	// first even though it is not the oldest insertion order victim.
	now = now.Add(2 * time.Minute)
	require.NoError(t, cache.Set(ctx, "new", &core.RawResult{Answer: "n"}, time.Hour))

	_, ok, _ := cache.Get(ctx, "short")
	require.False(t, ok)
	_, ok, _ = cache.Get(ctx, "long")
	require.True(t, ok)
	_, ok, _ = cache.Get(ctx, "new")
	require.True(t, ok)
}

func TestMemoryCacheEvictsOldestInsertionWhenFull(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(2)
	cache.Clock = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "first", &core.RawResult{Answer: "1"}, time.Hour))
	now = now.Add(time.Second)
	require.NoError(t, cache.Set(ctx, "second", &core.RawResult{Answer: "2"}, time.Hour))
	now = now.Add(time.Second)
	require.NoError(t, cache.Set(ctx, "third", &core.RawResult{Answer: "3"}, time.Hour))

	_, ok, _ := cache.Get(ctx, "first")
	require.False(t, ok)
	_, ok, _ = cache.Get(ctx, "second")
	require.True(t, ok)
	_, ok, _ = cache.Get(ctx, "third")
	require.True(t, ok)
}

func TestMemoryCacheClear(t *testing.T) {
	cache := NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", &core.RawResult{Answer: "a"}, time.Hour))
	require.NoError(t, cache.Set(ctx, "b", &core.RawResult{Answer: "b"}, time.Hour))
	require.NoError(t, cache.Clear(ctx))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Size)
	require.Equal(t, 10, stats.MaxSize)
}

func TestMemoryCacheNonPositiveTTLSkipsStore(t *testing.T) {
	cache := NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", &core.RawResult{Answer: "a"}, 0))
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
