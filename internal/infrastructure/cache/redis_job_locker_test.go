package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisJobLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisJobLocker(client, "test:lock:", nil), mr
}

func TestRedisJobLocker_Acquire(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()
	require.NoError(t, locker.Ping(ctx))

	release, err := locker.Acquire(ctx, "sync:a:customers", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:sync:a:customers"))

	_, err = locker.Acquire(ctx, "sync:a:customers", time.Minute)
	assert.ErrorIs(t, err, integration.ErrSyncLockHeld)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("test:lock:sync:a:customers"))

	release, err = locker.Acquire(ctx, "sync:a:customers", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))
}

func TestRedisJobLocker_ExpiredLeaseCanBeRetaken(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "sync:b:invoices", time.Minute)
	require.NoError(t, err)

	// Simulate a crashed holder whose lease ran out.
	mr.FastForward(2 * time.Minute)

	other, err := locker.Acquire(ctx, "sync:b:invoices", time.Minute)
	require.NoError(t, err)

	// The old holder's release must not remove the new lease.
	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("test:lock:sync:b:invoices"))
	require.NoError(t, other(ctx))
}

func TestJobLockerFactory_FallsBackWithoutRedis(t *testing.T) {
	factory := NewJobLockerFactory(config.RedisConfig{})
	locker, err := factory.CreateLocker()
	require.NoError(t, err)
	assert.IsType(t, &InMemoryJobLocker{}, locker)
}
