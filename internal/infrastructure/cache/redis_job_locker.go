package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockKeyPrefix = "syncengine:lock:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisJobLocker implements JobLocker with bsm/redislock. The lease is
// refreshed in the background at half its TTL until released, so a crashed
// process loses its locks after one TTL.
type RedisJobLocker struct {
	client    redis.UniversalClient
	locker    *redislock.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisJobLocker creates a locker over an existing client
func NewRedisJobLocker(client redis.UniversalClient, keyPrefix string, logger *zap.Logger) *RedisJobLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisJobLocker{
		client:    client,
		locker:    redislock.New(client),
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Ping checks the Redis connection
func (l *RedisJobLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Acquire obtains the lock without waiting
func (l *RedisJobLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, l.keyPrefix+key, ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, integration.ErrSyncLockHeld
		}
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lock, key, ttl, stop, done)

	var once sync.Once
	var releaseErr error
	release := func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
			if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				releaseErr = fmt.Errorf("failed to release lock %s: %w", key, err)
			}
		})
		return releaseErr
	}
	return release, nil
}

func (l *RedisJobLocker) keepAlive(lock *redislock.Lock, key string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), ttl/2)
			err := lock.Refresh(ctx, ttl, nil)
			cancel()
			if err != nil {
				l.logger.Warn("failed to refresh sync lock", zap.String("key", key), zap.Error(err))
				if errors.Is(err, redislock.ErrNotObtained) {
					return
				}
			}
		}
	}
}

// Ensure RedisJobLocker implements JobLocker
var _ integration.JobLocker = (*RedisJobLocker)(nil)
