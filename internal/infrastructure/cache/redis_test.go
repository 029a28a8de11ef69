package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type payload struct {
	Slug string `json:"slug"`
	N    int    `json:"n"`
}

func TestRedisCache_SetGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisCache(client, "sc:")
	ctx := context.Background()

	var got payload
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "chart:tee", payload{Slug: "tee", N: 2}, time.Minute))
	assert.True(t, mr.Exists("sc:chart:tee"))

	found, err = c.Get(ctx, "chart:tee", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Slug: "tee", N: 2}, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "chart:tee", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_DeletePattern(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisCache(client, "sc:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "chart:a", 1, 0))
	require.NoError(t, c.Set(ctx, "chart:b", 2, 0))
	require.NoError(t, c.Set(ctx, "tree", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, "chart:*"))
	assert.False(t, mr.Exists("sc:chart:a"))
	assert.False(t, mr.Exists("sc:chart:b"))
	assert.True(t, mr.Exists("sc:tree"))

	require.NoError(t, c.Delete(ctx, "tree"))
	assert.False(t, mr.Exists("sc:tree"))
}

func TestRedisCache_CorruptValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisCache(client, "")
	require.NoError(t, mr.Set("bad", "{not json"))

	var got payload
	found, err := c.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}
