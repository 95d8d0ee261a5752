package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncJobRepository implements SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// Create inserts a job
func (r *GormSyncJobRepository) Create(ctx context.Context, job *integration.SyncJob) error {
	return r.db.WithContext(ctx).Create(models.SyncJobModelFromDomain(job)).Error
}

// Update writes status, counters, error and timestamps in one statement
// so readers never observe counters out of step with each other.
func (r *GormSyncJobRepository) Update(ctx context.Context, job *integration.SyncJob) error {
	job.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":             job.Status,
			"records_processed":  job.RecordsProcessed,
			"records_successful": job.RecordsSuccessful,
			"records_failed":     job.RecordsFailed,
			"error_message":      job.ErrorMessage,
			"started_at":         job.StartedAt,
			"completed_at":       job.CompletedAt,
			"updated_at":         job.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrSyncJobNotFound
	}
	return nil
}

// UpdateProgress writes the three counters in one statement
func (r *GormSyncJobRepository) UpdateProgress(ctx context.Context, job *integration.SyncJob) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"records_processed":  job.RecordsProcessed,
			"records_successful": job.RecordsSuccessful,
			"records_failed":     job.RecordsFailed,
			"updated_at":         time.Now(),
		}).Error
}

// FindByID returns the job or ErrSyncJobNotFound
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	var m models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncJobNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// ListByIntegration returns at most limit jobs, newest first
func (r *GormSyncJobRepository) ListByIntegration(ctx context.Context, integrationID uuid.UUID, limit int) ([]integration.SyncJob, error) {
	var rows []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	jobs := make([]integration.SyncJob, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].ToDomain()
	}
	return jobs, nil
}

// ExistsRunning reports whether a running job exists for the pair
func (r *GormSyncJobRepository) ExistsRunning(ctx context.Context, integrationID uuid.UUID, dataType integration.DataType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("integration_id = ? AND data_type = ? AND status = ?", integrationID, dataType, integration.JobStatusRunning).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindStaleRunning returns running jobs started before the deadline
func (r *GormSyncJobRepository) FindStaleRunning(ctx context.Context, startedBefore time.Time) ([]integration.SyncJob, error) {
	var rows []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", integration.JobStatusRunning, startedBefore).
		Order("started_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	jobs := make([]integration.SyncJob, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].ToDomain()
	}
	return jobs, nil
}

// Ensure GormSyncJobRepository implements SyncJobRepository
var _ integration.SyncJobRepository = (*GormSyncJobRepository)(nil)
