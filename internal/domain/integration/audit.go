package integration

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is an append-only record of a configuration change, a sync
// lifecycle event or a connection test. TenantID is uuid.Nil when a config
// was deleted after it had already disappeared.
type AuditLogEntry struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	IntegrationID uuid.UUID
	Action        AuditAction
	Details       map[string]any
	CreatedAt     time.Time
}

// NewAuditLogEntry creates an entry stamped with the current time
func NewAuditLogEntry(tenantID, integrationID uuid.UUID, action AuditAction, details map[string]any) (*AuditLogEntry, error) {
	if !action.IsValid() {
		return nil, ErrInvalidAuditAction
	}
	if details == nil {
		details = map[string]any{}
	}
	return &AuditLogEntry{
		ID:            uuid.New(),
		TenantID:      tenantID,
		IntegrationID: integrationID,
		Action:        action,
		Details:       details,
		CreatedAt:     time.Now(),
	}, nil
}

// SyncRecordError keeps the detail of one contained failure so operators can
// see which record was rejected and why.
type SyncRecordError struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	JobID         uuid.UUID
	IntegrationID uuid.UUID
	DataType      DataType
	RecordID      string
	Message       string
	CreatedAt     time.Time
}

// NewSyncRecordError creates a record error for job
func NewSyncRecordError(job *SyncJob, recordID string, cause error) *SyncRecordError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &SyncRecordError{
		ID:            uuid.New(),
		TenantID:      job.TenantID,
		JobID:         job.ID,
		IntegrationID: job.IntegrationID,
		DataType:      job.DataType,
		RecordID:      recordID,
		Message:       msg,
		CreatedAt:     time.Now(),
	}
}
