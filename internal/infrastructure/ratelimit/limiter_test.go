package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FixedWindow(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(time.Hour, WithClock(clock.Now))
	defer store.Stop()
	l := NewLimiter(store).WithClock(clock.Now)
	ctx := context.Background()

	p := Policy{Name: "test", Limit: 3, Window: time.Minute}

	for i := int64(1); i <= 3; i++ {
		res, err := l.Allow(ctx, p, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3-i, res.Remaining)
		assert.Equal(t, int64(3), res.Limit)
	}

	res, err := l.Allow(ctx, p, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter)
	assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)

	clock.Advance(time.Minute)

	res, err = l.Allow(ctx, p, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Remaining)
}

func TestLimiter_IdentifiersAndPoliciesAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	l := NewLimiter(store)
	ctx := context.Background()

	p := Policy{Name: "a", Limit: 1, Window: time.Minute}
	q := Policy{Name: "b", Limit: 1, Window: time.Minute}

	res, _ := l.Allow(ctx, p, "key:1")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, p, "key:1")
	assert.False(t, res.Allowed)

	res, _ = l.Allow(ctx, p, "key:2")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, q, "key:1")
	assert.True(t, res.Allowed)
}

func TestLimiter_PeekDoesNotConsume(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	l := NewLimiter(store)
	ctx := context.Background()

	res, err := l.Peek(ctx, ReadPolicy, "ip:unknown")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, ReadPolicy.Limit, res.Remaining)

	_, _ = l.Allow(ctx, ReadPolicy, "ip:unknown")
	res, err = l.Peek(ctx, ReadPolicy, "ip:unknown")
	require.NoError(t, err)
	assert.Equal(t, ReadPolicy.Limit-1, res.Remaining)
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("down")
}

func (failingStore) Get(context.Context, string) (int64, time.Duration, error) {
	return 0, 0, errors.New("down")
}

func TestLimiter_PropagatesStoreErrors(t *testing.T) {
	l := NewLimiter(failingStore{})
	_, err := l.Allow(context.Background(), ReadPolicy, "x")
	assert.Error(t, err)
}

func TestLimiter_RedisBackedWindow(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewLimiter(NewRedisStore(client, ""))
	ctx := context.Background()
	p := Policy{Name: "auth", Limit: 2, Window: 5 * time.Minute}

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, p, "ip:9.9.9.9")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, p, "ip:9.9.9.9")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	mr.FastForward(5 * time.Minute)

	res, err = l.Allow(ctx, p, "ip:9.9.9.9")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Limit-res.Remaining)
}
