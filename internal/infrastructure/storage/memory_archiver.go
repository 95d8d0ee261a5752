package storage

import (
	"context"
	"errors"
	"sync"

	integrationapp "github.com/erp/syncengine/internal/application/integration"
)

var _ integrationapp.AuditArchiver = (*MemoryArchiver)(nil)

// MemoryArchiver keeps audit exports in process memory. It backs local
// development when no bucket is configured.
type MemoryArchiver struct {
	// BaseURL prefixes returned locations. Defaults to "memory://audit".
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchiver creates an empty MemoryArchiver
func NewMemoryArchiver() *MemoryArchiver {
	return &MemoryArchiver{
		BaseURL: "memory://audit",
		objects: make(map[string][]byte),
	}
}

// Archive stores a copy of body under key
func (m *MemoryArchiver) Archive(_ context.Context, key string, body []byte) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = append([]byte(nil), body...)
	return m.BaseURL + "/" + key, nil
}

// Get returns a copy of the object stored under key
func (m *MemoryArchiver) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Len returns the number of stored objects
func (m *MemoryArchiver) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
