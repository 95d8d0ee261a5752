package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncJob Entity
// ---------------------------------------------------------------------------

// SyncJob is one run over a data category of an integration.
// Jobs are historical records: they are never deleted.
type SyncJob struct {
	// ID is the unique identifier of the job
	ID uuid.UUID
	// TenantID is the tenant the job belongs to
	TenantID uuid.UUID
	// IntegrationID is the config the job ran against
	IntegrationID uuid.UUID
	// JobType is the direction of data flow
	JobType JobType
	// DataType is the category being pushed
	DataType DataType
	// Status is the state machine position
	Status JobStatus
	// RecordsProcessed always equals RecordsSuccessful + RecordsFailed
	RecordsProcessed  int
	RecordsSuccessful int
	RecordsFailed     int
	// ErrorMessage is set only when the job failed
	ErrorMessage string
	// StartedAt is set on the transition to running
	StartedAt *time.Time
	// CompletedAt is set on the transition to a terminal state
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSyncJob creates a pending job
func NewSyncJob(tenantID, integrationID uuid.UUID, jobType JobType, dataType DataType) (*SyncJob, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenantID
	}
	if integrationID == uuid.Nil {
		return nil, ErrInvalidIntegrationID
	}
	if jobType == "" {
		jobType = JobTypeExport
	}
	if !jobType.IsValid() {
		return nil, ErrInvalidJobType
	}
	if !dataType.IsValid() {
		return nil, ErrInvalidDataType
	}

	now := time.Now()
	return &SyncJob{
		ID:            uuid.New(),
		TenantID:      tenantID,
		IntegrationID: integrationID,
		JobType:       jobType,
		DataType:      dataType,
		Status:        JobStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Start moves a pending job to running
func (j *SyncJob) Start() error {
	if j.Status != JobStatusPending {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
	return nil
}

// RecordSuccess counts one pushed record
func (j *SyncJob) RecordSuccess() error {
	if j.Status != JobStatusRunning {
		return ErrInvalidJobTransition
	}
	j.RecordsSuccessful++
	j.RecordsProcessed++
	return nil
}

// RecordFailure counts one rejected record
func (j *SyncJob) RecordFailure() error {
	if j.Status != JobStatusRunning {
		return ErrInvalidJobTransition
	}
	j.RecordsFailed++
	j.RecordsProcessed++
	return nil
}

// Complete marks the whole record set as processed. Record-level failures do
// not prevent completion.
func (j *SyncJob) Complete() error {
	if j.Status != JobStatusRunning {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Fail aborts the job, keeping the counters accumulated so far
func (j *SyncJob) Fail(message string) error {
	if j.Status.IsTerminal() {
		return ErrInvalidJobTransition
	}
	if message == "" {
		message = "sync failed"
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = message
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// IsTerminal reports whether the job reached completed or failed
func (j *SyncJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// CountersConsistent reports whether processed == successful + failed
func (j *SyncJob) CountersConsistent() bool {
	return j.RecordsProcessed == j.RecordsSuccessful+j.RecordsFailed
}

// Duration returns the run time of a finished job
func (j *SyncJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}
