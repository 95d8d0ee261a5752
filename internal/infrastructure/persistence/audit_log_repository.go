package persistence

import (
	"context"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements AuditLogRepository using GORM. It only inserts.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append inserts an entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *integration.AuditLogEntry) error {
	m, err := models.AuditLogModelFromDomain(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListByIntegration returns at most limit entries, newest first
func (r *GormAuditLogRepository) ListByIntegration(ctx context.Context, integrationID uuid.UUID, limit int) ([]integration.AuditLogEntry, error) {
	var rows []models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]integration.AuditLogEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ integration.AuditLogRepository = (*GormAuditLogRepository)(nil)

// GormSyncRecordErrorRepository implements SyncRecordErrorRepository using GORM
type GormSyncRecordErrorRepository struct {
	db *gorm.DB
}

// NewGormSyncRecordErrorRepository creates a new GormSyncRecordErrorRepository
func NewGormSyncRecordErrorRepository(db *gorm.DB) *GormSyncRecordErrorRepository {
	return &GormSyncRecordErrorRepository{db: db}
}

// Append inserts a record error
func (r *GormSyncRecordErrorRepository) Append(ctx context.Context, e *integration.SyncRecordError) error {
	return r.db.WithContext(ctx).Create(models.SyncRecordErrorModelFromDomain(e)).Error
}

// ListByJob returns at most limit record errors of a job, oldest first
func (r *GormSyncRecordErrorRepository) ListByJob(ctx context.Context, jobID uuid.UUID, limit int) ([]integration.SyncRecordError, error) {
	var rows []models.SyncRecordErrorModel
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]integration.SyncRecordError, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Ensure GormSyncRecordErrorRepository implements SyncRecordErrorRepository
var _ integration.SyncRecordErrorRepository = (*GormSyncRecordErrorRepository)(nil)
