package integration

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Adapter value objects
// ---------------------------------------------------------------------------

// LocalRecord is one tenant business record read from the local store
type LocalRecord struct {
	// ID is the local identifier
	ID string
	// DataType is the record category
	DataType DataType
	// Fields holds the category-specific columns
	Fields map[string]any
}

// String returns the field value for key, or "" when it is missing or not a string
func (r LocalRecord) String(key string) string {
	if v, ok := r.Fields[key].(string); ok {
		return v
	}
	return ""
}

// PushRequest asks an adapter to push one record. An empty ExternalID means
// the record was never pushed and must be created; otherwise it is upserted.
type PushRequest struct {
	Record     LocalRecord
	ExternalID string
}

// IsCreate reports whether the request creates a new external record
func (r PushRequest) IsCreate() bool {
	return r.ExternalID == ""
}

// ExternalRef is the identifier assigned by the external system
type ExternalRef struct {
	ExternalID string
}

// ConnectionResult is the outcome of a connection test
type ConnectionResult struct {
	Success bool
	Message string
	Details map[string]any
}

// ---------------------------------------------------------------------------
// Adapter ports
// ---------------------------------------------------------------------------

// Adapter pushes records to one external system. Implementations return a
// *ContainedRecordError to reject a single record and a *FatalSyncError to
// abort the whole job.
type Adapter interface {
	// System names the external system; it keys ExternalRecordMapping rows
	System() string

	// SupportedDataTypes lists the categories this adapter has a sync routine for
	SupportedDataTypes() []DataType

	// Push creates or upserts one record
	Push(ctx context.Context, req PushRequest) (ExternalRef, error)

	// TestConnection verifies credentials without pushing data
	TestConnection(ctx context.Context) (ConnectionResult, error)
}

// AdapterLimits bounds how hard a sync job may drive an external system
type AdapterLimits struct {
	// Workers is the number of concurrent record workers per job
	Workers int
	// RatePerSecond is the sustained request rate per integration
	RatePerSecond float64
	// Burst is the token bucket size
	Burst int
	// CallTimeout bounds each adapter call
	CallTimeout time.Duration
}

// Normalize fills zero values with conservative defaults
func (l AdapterLimits) Normalize() AdapterLimits {
	if l.Workers <= 0 {
		l.Workers = 1
	}
	if l.RatePerSecond <= 0 {
		l.RatePerSecond = 1
	}
	if l.Burst <= 0 {
		l.Burst = 1
	}
	if l.CallTimeout <= 0 {
		l.CallTimeout = 30 * time.Second
	}
	return l
}

// AdapterFactory builds adapters for one integration type
type AdapterFactory interface {
	// Type is the integration type served by this factory
	Type() IntegrationType

	// SupportedDataTypes lists the categories the built adapters support
	SupportedDataTypes() []DataType

	// Limits returns the rate ceilings of the external system
	Limits() AdapterLimits

	// New builds an adapter for cfg. Invalid or expired credentials return
	// a *FatalSyncError.
	New(cfg *IntegrationConfig) (Adapter, error)
}

// ---------------------------------------------------------------------------
// AdapterRegistry
// ---------------------------------------------------------------------------

// AdapterRegistry maps integration types to adapter factories.
// It is populated once at startup.
type AdapterRegistry struct {
	mu        sync.RWMutex
	factories map[IntegrationType]AdapterFactory
}

// NewAdapterRegistry creates a registry holding factories
func NewAdapterRegistry(factories ...AdapterFactory) *AdapterRegistry {
	r := &AdapterRegistry{factories: make(map[IntegrationType]AdapterFactory)}
	for _, f := range factories {
		r.Register(f)
	}
	return r
}

// Register adds or replaces the factory for its type
func (r *AdapterRegistry) Register(f AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[f.Type()] = f
}

// Resolve returns the factory for t
func (r *AdapterRegistry) Resolve(t IntegrationType) (AdapterFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[t]
	if !ok {
		return nil, ErrAdapterNotRegistered
	}
	return f, nil
}

// Types returns the registered integration types, sorted
func (r *AdapterRegistry) Types() []IntegrationType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]IntegrationType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// SupportsDataType reports whether the factory handles dt
func SupportsDataType(f AdapterFactory, dt DataType) bool {
	for _, s := range f.SupportedDataTypes() {
		if s == dt {
			return true
		}
	}
	return false
}
