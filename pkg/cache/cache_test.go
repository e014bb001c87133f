package cache_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/cache"
)

func newCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb, "test:"), mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"n": 1}, time.Minute))
	assert.True(t, mr.Exists("test:k"))

	var out map[string]int
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, 1, out["n"])

	require.NoError(t, c.Forget(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &out), cache.ErrMiss)
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var s string
	assert.ErrorIs(t, c.Get(ctx, "k", &s), cache.ErrMiss)
}

func TestCache_PushDrain(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, "q", "a", time.Minute))
	require.NoError(t, c.Push(ctx, "q", "b", time.Minute))

	raw, err := c.Drain(ctx, "q")
	require.NoError(t, err)
	require.Len(t, raw, 2)

	var first string
	require.NoError(t, json.Unmarshal(raw[0], &first))
	assert.Equal(t, "a", first)

	raw, err = c.Drain(ctx, "q")
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestDefault_NilWithoutRedis(t *testing.T) {
	cache.RDB = nil
	assert.Nil(t, cache.Default())
}
