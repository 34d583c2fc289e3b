package redis_a_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/stockmirror/internal/adapters/redis_adapter"
	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/test/helpers"
)

func newCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{
			name:  "stores_and_retrieves_string",
			key:   "test:string",
			value: "test value",
		},
		{
			name:  "stores_and_retrieves_import_result",
			key:   "test:result",
			value: domain.ImportResult{Received: 3, Inserted: 2, Updated: 1, RemoteBatches: 1},
		},
		{
			name:  "stores_and_retrieves_slice",
			key:   "test:slice",
			value: []string{"item1", "item2", "item3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value))

			var raw json.RawMessage
			require.NoError(t, cache.Get(ctx, tt.key, &raw))

			expected, _ := json.Marshal(tt.value)
			assert.JSONEq(t, string(expected), string(raw))
		})
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond))

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	mr.FastForward(200 * time.Millisecond)

	err := cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	keys := []string{"del:1", "del:2", "del:3"}
	for _, key := range keys {
		require.NoError(t, cache.Set(ctx, key, "value"))
	}

	require.NoError(t, cache.Delete(ctx, keys...))
	require.NoError(t, cache.Delete(ctx))

	for _, key := range keys {
		var result string
		assert.ErrorIs(t, cache.Get(ctx, key, &result), redis_a.ErrCacheMiss)
	}
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	ok, err := cache.SetNX(ctx, "setnx:test", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "setnx:test", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var result string
	require.NoError(t, cache.Get(ctx, "setnx:test", &result))
	assert.Equal(t, "first", result)
}

func TestCache_PingFailsWhenServerStops(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.Ping(ctx))

	mr.Close()
	assert.Error(t, cache.Ping(ctx))
}

func TestCache_BuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{
			name:     "import_job_key",
			prefix:   redis_a.PrefixImportJob,
			parts:    []string{"123"},
			expected: "import:123",
		},
		{
			name:     "idempotency_key",
			prefix:   redis_a.PrefixIdempotency,
			parts:    []string{"client", "abc"},
			expected: "idem:client:abc",
		},
		{
			name:     "no_parts",
			prefix:   redis_a.PrefixImportJob,
			parts:    []string{},
			expected: "import",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}

func TestImportJobStore(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)
	store := redis_a.NewImportJobStore(cache, time.Hour)

	t.Run("claim_is_exclusive", func(t *testing.T) {
		id, claimed, err := store.Claim(ctx, "key-1", "job-a")
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, "job-a", id)

		id, claimed, err = store.Claim(ctx, "key-1", "job-b")
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.Equal(t, "job-a", id)
	})

	t.Run("save_and_get", func(t *testing.T) {
		job := domain.ImportJob{ID: "job-a", Status: domain.ImportRunning, StartedAt: time.Now().UTC()}
		job.Finish(domain.ImportResult{Received: 2, Inserted: 2}, nil, time.Now().UTC())
		require.NoError(t, store.Save(ctx, job))

		got, err := store.Get(ctx, "job-a")
		require.NoError(t, err)
		assert.Equal(t, domain.ImportCompleted, got.Status)
		assert.Equal(t, 2, got.Result.Inserted)
		require.NotNil(t, got.FinishedAt)
	})

	t.Run("missing_job", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("entries_expire", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)
		_, err := store.Get(ctx, "job-a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
