package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormRunningJobsProvider implements RunningJobsProvider using GORM.
// It joins sync_jobs with integration_configs to label jobs by type.
type GormRunningJobsProvider struct {
	db *gorm.DB
}

// NewGormRunningJobsProvider creates a new GormRunningJobsProvider.
func NewGormRunningJobsProvider(db *gorm.DB) *GormRunningJobsProvider {
	return &GormRunningJobsProvider{db: db}
}

// CountRunningByType returns the number of running jobs per integration type.
// Jobs whose config was deleted are counted under "unknown".
func (p *GormRunningJobsProvider) CountRunningByType(ctx context.Context) (map[string]int64, error) {
	type result struct {
		IntegrationType string `gorm:"column:integration_type"`
		Running         int64  `gorm:"column:running"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("sync_jobs").
		Select("COALESCE(integration_configs.integration_type, 'unknown') AS integration_type, COUNT(*) AS running").
		Joins("LEFT JOIN integration_configs ON integration_configs.id = sync_jobs.integration_id").
		Where("sync_jobs.status = ?", "running").
		Group("COALESCE(integration_configs.integration_type, 'unknown')").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.IntegrationType] = r.Running
	}
	return m, nil
}
