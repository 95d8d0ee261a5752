package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Repository ports
// ---------------------------------------------------------------------------

// IntegrationConfigRepository persists IntegrationConfig aggregates
type IntegrationConfigRepository interface {
	// Create inserts a new config
	Create(ctx context.Context, cfg *IntegrationConfig) error

	// Update saves every mutable field of cfg
	Update(ctx context.Context, cfg *IntegrationConfig) error

	// FindByID returns the config or ErrConfigNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*IntegrationConfig, error)

	// FindByTenant returns the tenant's configs, newest first
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]IntegrationConfig, error)

	// Delete removes the config and returns it, or nil when it did not exist
	Delete(ctx context.Context, id uuid.UUID) (*IntegrationConfig, error)

	// UpdateLastSyncAt stamps only last_sync_at
	UpdateLastSyncAt(ctx context.Context, id uuid.UUID, at time.Time) error

	// FindSchedulable returns active configs with a non-manual frequency
	FindSchedulable(ctx context.Context) ([]IntegrationConfig, error)
}

// SyncJobRepository persists SyncJob entities
type SyncJobRepository interface {
	Create(ctx context.Context, job *SyncJob) error

	// Update writes status, counters, error and timestamps in one statement
	Update(ctx context.Context, job *SyncJob) error

	// UpdateProgress writes the three counters in one statement
	UpdateProgress(ctx context.Context, job *SyncJob) error

	// FindByID returns the job or ErrSyncJobNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// ListByIntegration returns at most limit jobs, newest first
	ListByIntegration(ctx context.Context, integrationID uuid.UUID, limit int) ([]SyncJob, error)

	// ExistsRunning reports whether a running job exists for the pair
	ExistsRunning(ctx context.Context, integrationID uuid.UUID, dataType DataType) (bool, error)

	// FindStaleRunning returns running jobs started before the deadline
	FindStaleRunning(ctx context.Context, startedBefore time.Time) ([]SyncJob, error)
}

// RecordMappingRepository persists ExternalRecordMapping rows
type RecordMappingRepository interface {
	// Find returns the mapping for key, or nil when none exists
	Find(ctx context.Context, key MappingKey) (*ExternalRecordMapping, error)

	// Upsert inserts or updates the mapping in a single statement
	Upsert(ctx context.Context, m *ExternalRecordMapping) error

	// ListByIntegration returns the mappings written by an integration for a data type
	ListByIntegration(ctx context.Context, integrationID uuid.UUID, dataType DataType) ([]ExternalRecordMapping, error)
}

// AuditLogRepository persists AuditLogEntry rows. There is no update or delete.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLogEntry) error

	// ListByIntegration returns at most limit entries, newest first
	ListByIntegration(ctx context.Context, integrationID uuid.UUID, limit int) ([]AuditLogEntry, error)
}

// SyncRecordErrorRepository persists per-record failure detail
type SyncRecordErrorRepository interface {
	Append(ctx context.Context, e *SyncRecordError) error
	ListByJob(ctx context.Context, jobID uuid.UUID, limit int) ([]SyncRecordError, error)
}

// LocalRecordSource reads tenant business records from the local store and
// stamps external identifiers back onto them.
type LocalRecordSource interface {
	// ListRecords returns every record of dataType owned by the tenant
	ListRecords(ctx context.Context, tenantID uuid.UUID, dataType DataType) ([]LocalRecord, error)

	// StampExternalID writes the external reference onto the local record
	StampExternalID(ctx context.Context, tenantID uuid.UUID, dataType DataType, recordID, system, externalID string) error
}

// JobLocker serialises runs of one (integration, data type) pair across
// every process sharing the lock backend.
type JobLocker interface {
	// Acquire takes the lock for key or returns ErrSyncLockHeld. The returned
	// release func is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
