package integration

import (
	"encoding/json"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/google/uuid"
)

// =============================================================================
// Integration config DTOs
// =============================================================================

// CreateIntegrationRequest represents a request to create an integration config
type CreateIntegrationRequest struct {
	Name             string          `json:"name" binding:"required,min=1,max=100"`
	IntegrationType  string          `json:"integration_type" binding:"required"`
	ConfigData       json.RawMessage `json:"config_data" swaggertype:"object"`
	SyncFrequency    string          `json:"sync_frequency" binding:"omitempty,oneof=manual hourly daily weekly"`
	EnabledDataTypes []string        `json:"enabled_data_types"`
}

// UpdateIntegrationRequest represents a partial update. Omitted fields are kept.
type UpdateIntegrationRequest struct {
	Name             *string         `json:"name" binding:"omitempty,min=1,max=100"`
	IsActive         *bool           `json:"is_active"`
	ConfigData       json.RawMessage `json:"config_data" swaggertype:"object"`
	SyncFrequency    *string         `json:"sync_frequency" binding:"omitempty,oneof=manual hourly daily weekly"`
	EnabledDataTypes *[]string       `json:"enabled_data_types"`
}

// IntegrationResponse represents an integration config with secrets redacted
type IntegrationResponse struct {
	ID               uuid.UUID      `json:"id"`
	TenantID         uuid.UUID      `json:"tenant_id"`
	Name             string         `json:"name"`
	IntegrationType  string         `json:"integration_type"`
	IsActive         bool           `json:"is_active"`
	ConfigData       map[string]any `json:"config_data"`
	SyncFrequency    string         `json:"sync_frequency"`
	EnabledDataTypes []string       `json:"enabled_data_types"`
	LastSyncAt       *time.Time     `json:"last_sync_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ToIntegrationResponse converts a config to its redacted response
func ToIntegrationResponse(cfg *integration.IntegrationConfig) IntegrationResponse {
	resp := IntegrationResponse{
		ID:               cfg.ID,
		TenantID:         cfg.TenantID,
		Name:             cfg.Name,
		IntegrationType:  string(cfg.IntegrationType),
		IsActive:         cfg.IsActive,
		SyncFrequency:    string(cfg.SyncFrequency),
		EnabledDataTypes: dataTypeStrings(cfg.EnabledDataTypes),
		LastSyncAt:       cfg.LastSyncAt,
		CreatedAt:        cfg.CreatedAt,
		UpdatedAt:        cfg.UpdatedAt,
	}
	if cfg.ConfigData != nil {
		resp.ConfigData = cfg.ConfigData.RedactedFields()
	}
	return resp
}

// ToIntegrationResponses converts a slice of configs
func ToIntegrationResponses(cfgs []integration.IntegrationConfig) []IntegrationResponse {
	out := make([]IntegrationResponse, len(cfgs))
	for i := range cfgs {
		out[i] = ToIntegrationResponse(&cfgs[i])
	}
	return out
}

func dataTypeStrings(dts []integration.DataType) []string {
	out := make([]string, len(dts))
	for i, dt := range dts {
		out[i] = string(dt)
	}
	return out
}

func parseDataTypes(raw []string) ([]integration.DataType, error) {
	out := make([]integration.DataType, 0, len(raw))
	for _, s := range raw {
		dt := integration.DataType(s)
		if !dt.IsValid() {
			return nil, integration.ErrInvalidDataType
		}
		out = append(out, dt)
	}
	return out, nil
}

// =============================================================================
// Sync job DTOs
// =============================================================================

// RunSyncRequest asks for one sync run
type RunSyncRequest struct {
	IntegrationID uuid.UUID `json:"-"`
	DataType      string    `json:"data_type" binding:"required"`
	JobType       string    `json:"job_type" binding:"omitempty,oneof=import export sync"`
	Async         bool      `json:"async"`
}

// SyncJobResponse represents a sync job
type SyncJobResponse struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	IntegrationID     uuid.UUID  `json:"integration_id"`
	JobType           string     `json:"job_type"`
	DataType          string     `json:"data_type"`
	Status            string     `json:"status"`
	RecordsProcessed  int        `json:"records_processed"`
	RecordsSuccessful int        `json:"records_successful"`
	RecordsFailed     int        `json:"records_failed"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ToSyncJobResponse converts a job
func ToSyncJobResponse(job *integration.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:                job.ID,
		TenantID:          job.TenantID,
		IntegrationID:     job.IntegrationID,
		JobType:           string(job.JobType),
		DataType:          string(job.DataType),
		Status:            string(job.Status),
		RecordsProcessed:  job.RecordsProcessed,
		RecordsSuccessful: job.RecordsSuccessful,
		RecordsFailed:     job.RecordsFailed,
		ErrorMessage:      job.ErrorMessage,
		StartedAt:         job.StartedAt,
		CompletedAt:       job.CompletedAt,
		CreatedAt:         job.CreatedAt,
	}
}

// ToSyncJobResponses converts a slice of jobs
func ToSyncJobResponses(jobs []integration.SyncJob) []SyncJobResponse {
	out := make([]SyncJobResponse, len(jobs))
	for i := range jobs {
		out[i] = ToSyncJobResponse(&jobs[i])
	}
	return out
}

// SyncRecordErrorResponse represents one rejected record of a job
type SyncRecordErrorResponse struct {
	RecordID  string    `json:"record_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSyncRecordErrorResponses converts record errors
func ToSyncRecordErrorResponses(errs []integration.SyncRecordError) []SyncRecordErrorResponse {
	out := make([]SyncRecordErrorResponse, len(errs))
	for i, e := range errs {
		out[i] = SyncRecordErrorResponse{RecordID: e.RecordID, Message: e.Message, CreatedAt: e.CreatedAt}
	}
	return out
}

// =============================================================================
// Audit and connection DTOs
// =============================================================================

// AuditLogResponse represents one audit entry
type AuditLogResponse struct {
	ID            uuid.UUID      `json:"id"`
	TenantID      uuid.UUID      `json:"tenant_id"`
	IntegrationID uuid.UUID      `json:"integration_id"`
	Action        string         `json:"action"`
	Details       map[string]any `json:"details"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ToAuditLogResponses converts audit entries
func ToAuditLogResponses(entries []integration.AuditLogEntry) []AuditLogResponse {
	out := make([]AuditLogResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditLogResponse{
			ID:            e.ID,
			TenantID:      e.TenantID,
			IntegrationID: e.IntegrationID,
			Action:        string(e.Action),
			Details:       e.Details,
			CreatedAt:     e.CreatedAt,
		}
	}
	return out
}

// ConnectionResultResponse is the outcome of a connection test
type ConnectionResultResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AuditExportResponse points at an exported audit archive
type AuditExportResponse struct {
	Location string `json:"location"`
	Entries  int    `json:"entries"`
}
