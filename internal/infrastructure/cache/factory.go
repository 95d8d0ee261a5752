package cache

import (
	"fmt"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/config"
	"go.uber.org/zap"
)

// JobLockerFactory creates job lockers based on configuration
type JobLockerFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// JobLockerFactoryOption is a functional option for configuring the factory
type JobLockerFactoryOption func(*JobLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) JobLockerFactoryOption {
	return func(f *JobLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory locker
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) JobLockerFactoryOption {
	return func(f *JobLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewJobLockerFactory creates a new factory
func NewJobLockerFactory(cfg config.RedisConfig, opts ...JobLockerFactoryOption) *JobLockerFactory {
	f := &JobLockerFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisLocker connects to Redis and returns a distributed locker
func (f *JobLockerFactory) CreateRedisLocker() (*RedisJobLocker, error) {
	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis job locker: %w", err)
	}
	return NewRedisJobLocker(client, f.redisConfig.KeyPrefix, f.logger), nil
}

// CreateLocker prefers Redis and falls back to the in-memory locker when
// allowed. Without Redis, two instances may run the same sync concurrently.
func (f *JobLockerFactory) CreateLocker() (integration.JobLocker, error) {
	if f.redisConfig.Host != "" {
		locker, err := f.CreateRedisLocker()
		if err == nil {
			f.logger.Info("using Redis job locker")
			return locker, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for job locking but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory job locker. "+
			"Concurrent syncs are only prevented within this instance.",
			zap.Error(err),
		)
	}
	return NewInMemoryJobLocker(), nil
}
