package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
)

// InMemoryJobLocker implements JobLocker with a process-local set of held
// keys. Locks are held until released; the TTL is ignored because the
// holder lives in the same process.
// This is suitable for single-instance deployments and testing.
type InMemoryJobLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewInMemoryJobLocker creates a new in-memory job locker
func NewInMemoryJobLocker() *InMemoryJobLocker {
	return &InMemoryJobLocker{held: make(map[string]struct{})}
}

// Acquire takes key or returns ErrSyncLockHeld
func (l *InMemoryJobLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, integration.ErrSyncLockHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}

// Held reports whether key is currently locked
func (l *InMemoryJobLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// Ensure InMemoryJobLocker implements JobLocker
var _ integration.JobLocker = (*InMemoryJobLocker)(nil)
