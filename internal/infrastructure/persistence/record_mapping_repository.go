package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecordMappingRepository implements RecordMappingRepository using GORM
type GormRecordMappingRepository struct {
	db *gorm.DB
}

// NewGormRecordMappingRepository creates a new GormRecordMappingRepository
func NewGormRecordMappingRepository(db *gorm.DB) *GormRecordMappingRepository {
	return &GormRecordMappingRepository{db: db}
}

// Find returns the mapping for key, or nil when none exists
func (r *GormRecordMappingRepository) Find(ctx context.Context, key integration.MappingKey) (*integration.ExternalRecordMapping, error) {
	var m models.ExternalRecordMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND local_entity_type = ? AND local_entity_id = ? AND external_system = ?",
			key.TenantID, key.LocalEntityType, key.LocalEntityID, key.ExternalSystem).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Upsert inserts the mapping or, when the key already exists, updates its
// external id in the same statement. Retried pushes never duplicate rows.
func (r *GormRecordMappingRepository) Upsert(ctx context.Context, mapping *integration.ExternalRecordMapping) error {
	if err := mapping.Key().Validate(); err != nil {
		return err
	}
	mapping.UpdatedAt = time.Now()
	m := models.ExternalRecordMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "local_entity_type"},
			{Name: "local_entity_id"},
			{Name: "external_system"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"external_id", "integration_id", "updated_at"}),
	}).Create(m).Error
}

// ListByIntegration returns the mappings written by an integration for a data type
func (r *GormRecordMappingRepository) ListByIntegration(ctx context.Context, integrationID uuid.UUID, dataType integration.DataType) ([]integration.ExternalRecordMapping, error) {
	var rows []models.ExternalRecordMappingModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ? AND local_entity_type = ?", integrationID, dataType).
		Order("local_entity_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	mappings := make([]integration.ExternalRecordMapping, len(rows))
	for i := range rows {
		mappings[i] = *rows[i].ToDomain()
	}
	return mappings, nil
}

// Ensure GormRecordMappingRepository implements RecordMappingRepository
var _ integration.RecordMappingRepository = (*GormRecordMappingRepository)(nil)
