package models

import (
	"encoding/json"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/google/uuid"
)

// IntegrationConfigModel is the persistence model for the IntegrationConfig aggregate.
// ConfigData holds the encoded (and possibly encrypted) credential blob.
type IntegrationConfigModel struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID                   `gorm:"type:uuid;not null;index:idx_integration_config_tenant_created,priority:1"`
	Name             string                      `gorm:"type:varchar(100);not null"`
	IntegrationType  integration.IntegrationType `gorm:"type:varchar(30);not null"`
	IsActive         bool                        `gorm:"not null;index:idx_integration_config_schedulable,priority:1"`
	ConfigData       string                      `gorm:"type:text;not null;column:config_data"`
	SyncFrequency    integration.SyncFrequency   `gorm:"type:varchar(20);not null;default:'manual';index:idx_integration_config_schedulable,priority:2"`
	EnabledDataTypes string                      `gorm:"type:jsonb;column:enabled_data_types"`
	LastSyncAt       *time.Time
	CreatedAt        time.Time `gorm:"not null;index:idx_integration_config_tenant_created,priority:2"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IntegrationConfigModel) TableName() string {
	return "integration_configs"
}

// ToDomain converts the model to a domain IntegrationConfig using already decoded config data.
func (m *IntegrationConfigModel) ToDomain(data integration.ConfigData) *integration.IntegrationConfig {
	cfg := &integration.IntegrationConfig{
		ID:               m.ID,
		TenantID:         m.TenantID,
		Name:             m.Name,
		IntegrationType:  m.IntegrationType,
		IsActive:         m.IsActive,
		ConfigData:       data,
		SyncFrequency:    m.SyncFrequency,
		EnabledDataTypes: make([]integration.DataType, 0),
		LastSyncAt:       m.LastSyncAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.EnabledDataTypes != "" {
		var types []integration.DataType
		if err := json.Unmarshal([]byte(m.EnabledDataTypes), &types); err == nil {
			cfg.EnabledDataTypes = types
		}
	}
	return cfg
}

// FromDomain populates the model from a domain config and its encoded config data.
func (m *IntegrationConfigModel) FromDomain(cfg *integration.IntegrationConfig, encodedData string) {
	m.ID = cfg.ID
	m.TenantID = cfg.TenantID
	m.Name = cfg.Name
	m.IntegrationType = cfg.IntegrationType
	m.IsActive = cfg.IsActive
	m.ConfigData = encodedData
	m.SyncFrequency = cfg.SyncFrequency
	m.LastSyncAt = cfg.LastSyncAt
	m.CreatedAt = cfg.CreatedAt
	m.UpdatedAt = cfg.UpdatedAt

	types := cfg.EnabledDataTypes
	if types == nil {
		types = []integration.DataType{}
	}
	if b, err := json.Marshal(types); err == nil {
		m.EnabledDataTypes = string(b)
	}
}

// SyncJobModel is the persistence model for the SyncJob entity.
type SyncJobModel struct {
	ID                uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	IntegrationID     uuid.UUID             `gorm:"type:uuid;not null;index:idx_sync_job_integration_created,priority:1;index:idx_sync_job_integration_status,priority:1"`
	JobType           integration.JobType   `gorm:"type:varchar(20);not null"`
	DataType          integration.DataType  `gorm:"type:varchar(30);not null;index:idx_sync_job_integration_status,priority:2"`
	Status            integration.JobStatus `gorm:"type:varchar(20);not null;index:idx_sync_job_integration_status,priority:3"`
	RecordsProcessed  int                   `gorm:"not null;default:0"`
	RecordsSuccessful int                   `gorm:"not null;default:0"`
	RecordsFailed     int                   `gorm:"not null;default:0"`
	ErrorMessage      string                `gorm:"type:text"`
	StartedAt         *time.Time            `gorm:"index"`
	CompletedAt       *time.Time
	CreatedAt         time.Time `gorm:"not null;index:idx_sync_job_integration_created,priority:2"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the model to a domain SyncJob.
func (m *SyncJobModel) ToDomain() *integration.SyncJob {
	return &integration.SyncJob{
		ID:                m.ID,
		TenantID:          m.TenantID,
		IntegrationID:     m.IntegrationID,
		JobType:           m.JobType,
		DataType:          m.DataType,
		Status:            m.Status,
		RecordsProcessed:  m.RecordsProcessed,
		RecordsSuccessful: m.RecordsSuccessful,
		RecordsFailed:     m.RecordsFailed,
		ErrorMessage:      m.ErrorMessage,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// SyncJobModelFromDomain creates a persistence model from a domain SyncJob.
func SyncJobModelFromDomain(j *integration.SyncJob) *SyncJobModel {
	return &SyncJobModel{
		ID:                j.ID,
		TenantID:          j.TenantID,
		IntegrationID:     j.IntegrationID,
		JobType:           j.JobType,
		DataType:          j.DataType,
		Status:            j.Status,
		RecordsProcessed:  j.RecordsProcessed,
		RecordsSuccessful: j.RecordsSuccessful,
		RecordsFailed:     j.RecordsFailed,
		ErrorMessage:      j.ErrorMessage,
		StartedAt:         j.StartedAt,
		CompletedAt:       j.CompletedAt,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}

// ExternalRecordMappingModel is the persistence model for ExternalRecordMapping.
// The unique index enforces one mapping per (tenant, entity type, entity id, system).
type ExternalRecordMappingModel struct {
	ID              uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:uq_external_record_mapping_key,priority:1"`
	LocalEntityType integration.DataType `gorm:"type:varchar(30);not null;uniqueIndex:uq_external_record_mapping_key,priority:2"`
	LocalEntityID   string               `gorm:"type:varchar(100);not null;uniqueIndex:uq_external_record_mapping_key,priority:3"`
	ExternalSystem  string               `gorm:"type:varchar(50);not null;uniqueIndex:uq_external_record_mapping_key,priority:4"`
	IntegrationID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ExternalID      string               `gorm:"type:varchar(255);not null"`
	CreatedAt       time.Time            `gorm:"not null"`
	UpdatedAt       time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExternalRecordMappingModel) TableName() string {
	return "external_record_mappings"
}

// ToDomain converts the model to a domain ExternalRecordMapping.
func (m *ExternalRecordMappingModel) ToDomain() *integration.ExternalRecordMapping {
	return &integration.ExternalRecordMapping{
		ID:              m.ID,
		TenantID:        m.TenantID,
		IntegrationID:   m.IntegrationID,
		LocalEntityType: m.LocalEntityType,
		LocalEntityID:   m.LocalEntityID,
		ExternalSystem:  m.ExternalSystem,
		ExternalID:      m.ExternalID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ExternalRecordMappingModelFromDomain creates a persistence model from a domain mapping.
func ExternalRecordMappingModelFromDomain(e *integration.ExternalRecordMapping) *ExternalRecordMappingModel {
	return &ExternalRecordMappingModel{
		ID:              e.ID,
		TenantID:        e.TenantID,
		IntegrationID:   e.IntegrationID,
		LocalEntityType: e.LocalEntityType,
		LocalEntityID:   e.LocalEntityID,
		ExternalSystem:  e.ExternalSystem,
		ExternalID:      e.ExternalID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// AuditLogModel is the persistence model for AuditLogEntry. Rows are never updated.
type AuditLogModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	IntegrationID uuid.UUID               `gorm:"type:uuid;not null;index:idx_integration_audit_log_integration_created,priority:1"`
	Action        integration.AuditAction `gorm:"type:varchar(30);not null"`
	Details       string                  `gorm:"type:jsonb"`
	CreatedAt     time.Time               `gorm:"not null;index:idx_integration_audit_log_integration_created,priority:2"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "integration_audit_logs"
}

// ToDomain converts the model to a domain AuditLogEntry.
func (m *AuditLogModel) ToDomain() *integration.AuditLogEntry {
	entry := &integration.AuditLogEntry{
		ID:            m.ID,
		TenantID:      m.TenantID,
		IntegrationID: m.IntegrationID,
		Action:        m.Action,
		Details:       map[string]any{},
		CreatedAt:     m.CreatedAt,
	}
	if m.Details != "" {
		var details map[string]any
		if err := json.Unmarshal([]byte(m.Details), &details); err == nil && details != nil {
			entry.Details = details
		}
	}
	return entry
}

// AuditLogModelFromDomain creates a persistence model from a domain entry.
func AuditLogModelFromDomain(e *integration.AuditLogEntry) (*AuditLogModel, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return nil, err
	}
	return &AuditLogModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		IntegrationID: e.IntegrationID,
		Action:        e.Action,
		Details:       string(details),
		CreatedAt:     e.CreatedAt,
	}, nil
}

// SyncRecordErrorModel is the persistence model for SyncRecordError.
type SyncRecordErrorModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	JobID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	IntegrationID uuid.UUID            `gorm:"type:uuid;not null"`
	DataType      integration.DataType `gorm:"type:varchar(30);not null"`
	RecordID      string               `gorm:"type:varchar(100);not null"`
	Message       string               `gorm:"type:text"`
	CreatedAt     time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncRecordErrorModel) TableName() string {
	return "sync_record_errors"
}

// ToDomain converts the model to a domain SyncRecordError.
func (m *SyncRecordErrorModel) ToDomain() *integration.SyncRecordError {
	return &integration.SyncRecordError{
		ID:            m.ID,
		TenantID:      m.TenantID,
		JobID:         m.JobID,
		IntegrationID: m.IntegrationID,
		DataType:      m.DataType,
		RecordID:      m.RecordID,
		Message:       m.Message,
		CreatedAt:     m.CreatedAt,
	}
}

// SyncRecordErrorModelFromDomain creates a persistence model from a domain record error.
func SyncRecordErrorModelFromDomain(e *integration.SyncRecordError) *SyncRecordErrorModel {
	return &SyncRecordErrorModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		JobID:         e.JobID,
		IntegrationID: e.IntegrationID,
		DataType:      e.DataType,
		RecordID:      e.RecordID,
		Message:       e.Message,
		CreatedAt:     e.CreatedAt,
	}
}

// AllIntegrationModels lists the models owned by the sync engine, in migration order.
func AllIntegrationModels() []any {
	return []any{
		&IntegrationConfigModel{},
		&SyncJobModel{},
		&ExternalRecordMappingModel{},
		&AuditLogModel{},
		&SyncRecordErrorModel{},
	}
}
