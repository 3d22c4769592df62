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

func newTestCooldown(t *testing.T, ttl time.Duration) (*Cooldown, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCooldown(client, "challenge", ttl), mr
}

func TestCooldownAcquireOncePerWindow(t *testing.T) {
	cd, mr := newTestCooldown(t, time.Minute)
	ctx := context.Background()

	ok, err := cd.Acquire(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cd.Acquire(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire inside window")

	ok, err = cd.Acquire(ctx, "b@x.com")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	assert.True(t, mr.Exists("challenge:a@x.com"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = cd.Acquire(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok, "window expired")
}

func TestCooldownRelease(t *testing.T) {
	cd, _ := newTestCooldown(t, time.Hour)
	ctx := context.Background()

	ok, err := cd.Acquire(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, cd.Release(ctx, "a@x.com"))

	ok, err = cd.Acquire(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCooldownReportsRedisErrors(t *testing.T) {
	cd, mr := newTestCooldown(t, time.Minute)
	mr.Close()

	_, err := cd.Acquire(context.Background(), "a@x.com")
	assert.Error(t, err)
}
