package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/persistence/models"
	"github.com/erp/syncengine/internal/infrastructure/secrets"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIntegrationConfigRepository implements IntegrationConfigRepository using GORM.
// Config data is encoded to JSON and sealed with the cipher before it is stored.
type GormIntegrationConfigRepository struct {
	db     *gorm.DB
	cipher secrets.Cipher
}

// NewGormIntegrationConfigRepository creates a new GormIntegrationConfigRepository.
// A nil cipher stores config data in plaintext.
func NewGormIntegrationConfigRepository(db *gorm.DB, cipher secrets.Cipher) *GormIntegrationConfigRepository {
	if cipher == nil {
		cipher = secrets.PlaintextCipher{}
	}
	return &GormIntegrationConfigRepository{db: db, cipher: cipher}
}

func (r *GormIntegrationConfigRepository) toModel(cfg *integration.IntegrationConfig) (*models.IntegrationConfigModel, error) {
	raw, err := integration.EncodeConfigData(cfg.ConfigData)
	if err != nil {
		return nil, err
	}
	sealed, err := r.cipher.Encrypt(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt config data: %w", err)
	}
	m := &models.IntegrationConfigModel{}
	m.FromDomain(cfg, sealed)
	return m, nil
}

func (r *GormIntegrationConfigRepository) toDomain(m *models.IntegrationConfigModel) (*integration.IntegrationConfig, error) {
	raw, err := r.cipher.Decrypt(m.ConfigData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt config data for %s: %w", m.ID, err)
	}
	data, err := integration.DecodeConfigData(m.IntegrationType, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config data for %s: %w", m.ID, err)
	}
	return m.ToDomain(data), nil
}

func (r *GormIntegrationConfigRepository) toDomainList(rows []models.IntegrationConfigModel) ([]integration.IntegrationConfig, error) {
	configs := make([]integration.IntegrationConfig, 0, len(rows))
	for i := range rows {
		cfg, err := r.toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, nil
}

// Create inserts a new config
func (r *GormIntegrationConfigRepository) Create(ctx context.Context, cfg *integration.IntegrationConfig) error {
	m, err := r.toModel(cfg)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// Update saves every mutable field of cfg
func (r *GormIntegrationConfigRepository) Update(ctx context.Context, cfg *integration.IntegrationConfig) error {
	m, err := r.toModel(cfg)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.IntegrationConfigModel{}).
		Where("id = ?", cfg.ID).
		Updates(map[string]any{
			"name":               m.Name,
			"is_active":          m.IsActive,
			"config_data":        m.ConfigData,
			"sync_frequency":     m.SyncFrequency,
			"enabled_data_types": m.EnabledDataTypes,
			"updated_at":         m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrConfigNotFound
	}
	return nil
}

// FindByID returns the config or ErrConfigNotFound
func (r *GormIntegrationConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.IntegrationConfig, error) {
	var m models.IntegrationConfigModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrConfigNotFound
		}
		return nil, err
	}
	return r.toDomain(&m)
}

// FindByTenant returns the tenant's configs, newest first
func (r *GormIntegrationConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]integration.IntegrationConfig, error) {
	var rows []models.IntegrationConfigModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.toDomainList(rows)
}

// Delete removes the config and returns it, or nil when it did not exist.
// Sync jobs and audit entries keep their reference.
func (r *GormIntegrationConfigRepository) Delete(ctx context.Context, id uuid.UUID) (*integration.IntegrationConfig, error) {
	var deleted *integration.IntegrationConfig
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.IntegrationConfigModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&models.IntegrationConfigModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		cfg, err := r.toDomain(&m)
		if err != nil {
			// The row is gone either way; report what is known about it.
			cfg = m.ToDomain(nil)
		}
		deleted = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// UpdateLastSyncAt stamps only last_sync_at. A config deleted mid-sync is not an error.
func (r *GormIntegrationConfigRepository) UpdateLastSyncAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.IntegrationConfigModel{}).
		Where("id = ?", id).
		UpdateColumn("last_sync_at", at).Error
}

// FindSchedulable returns active configs with a non-manual frequency
func (r *GormIntegrationConfigRepository) FindSchedulable(ctx context.Context) ([]integration.IntegrationConfig, error) {
	var rows []models.IntegrationConfigModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND sync_frequency <> ?", true, integration.SyncFrequencyManual).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.toDomainList(rows)
}

// Ensure GormIntegrationConfigRepository implements IntegrationConfigRepository
var _ integration.IntegrationConfigRepository = (*GormIntegrationConfigRepository)(nil)
