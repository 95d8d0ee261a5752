package integration

import (
	"context"
	"errors"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/google/uuid"
)

// ConfigService manages integration configs. Every mutation writes one
// config_updated audit entry.
type ConfigService struct {
	repo     integration.IntegrationConfigRepository
	audit    *AuditService
	onDelete []func(uuid.UUID)
}

// NewConfigService creates a new ConfigService
func NewConfigService(repo integration.IntegrationConfigRepository, audit *AuditService) *ConfigService {
	return &ConfigService{repo: repo, audit: audit}
}

// OnDelete registers fn to run after a config is deleted
func (s *ConfigService) OnDelete(fn func(id uuid.UUID)) {
	s.onDelete = append(s.onDelete, fn)
}

// ---------------------------------------------------------------------------
// CRUD Operations
// ---------------------------------------------------------------------------

// Create validates and stores a new active config
func (s *ConfigService) Create(ctx context.Context, tenantID uuid.UUID, req CreateIntegrationRequest) (*IntegrationResponse, error) {
	integrationType := integration.IntegrationType(req.IntegrationType)
	if !integrationType.IsValid() {
		return nil, integration.NewValidationError(integration.ErrInvalidIntegrationType)
	}
	data, err := integration.DecodeConfigData(integrationType, req.ConfigData)
	if err != nil {
		return nil, integration.NewValidationError(err)
	}
	dataTypes, err := parseDataTypes(req.EnabledDataTypes)
	if err != nil {
		return nil, integration.NewValidationError(err)
	}

	cfg, err := integration.NewIntegrationConfig(
		tenantID,
		req.Name,
		integrationType,
		data,
		integration.SyncFrequency(req.SyncFrequency),
		dataTypes,
	)
	if err != nil {
		return nil, integration.NewValidationError(err)
	}

	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, cfg.TenantID, cfg.ID, integration.AuditActionConfigUpdated, map[string]any{
		"operation":        "create",
		"name":             cfg.Name,
		"integration_type": string(cfg.IntegrationType),
	})

	resp := ToIntegrationResponse(cfg)
	return &resp, nil
}

// Update applies the supplied fields. The audit entry names the changed
// fields but never their values.
func (s *ConfigService) Update(ctx context.Context, id uuid.UUID, req UpdateIntegrationRequest) (*IntegrationResponse, error) {
	cfg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := buildPatch(cfg.IntegrationType, req)
	if err != nil {
		return nil, integration.NewValidationError(err)
	}
	changed, err := cfg.ApplyPatch(patch)
	if err != nil {
		return nil, integration.NewValidationError(err)
	}

	if err := s.repo.Update(ctx, cfg); err != nil {
		if errors.Is(err, integration.ErrConfigNotFound) {
			return nil, integration.NewNotFoundError("integration")
		}
		return nil, err
	}

	s.audit.Record(ctx, cfg.TenantID, cfg.ID, integration.AuditActionConfigUpdated, map[string]any{
		"operation":      "update",
		"changed_fields": changed,
	})

	resp := ToIntegrationResponse(cfg)
	return &resp, nil
}

func buildPatch(t integration.IntegrationType, req UpdateIntegrationRequest) (integration.IntegrationConfigPatch, error) {
	patch := integration.IntegrationConfigPatch{
		Name:     req.Name,
		IsActive: req.IsActive,
	}
	if len(req.ConfigData) > 0 {
		data, err := integration.DecodeConfigData(t, req.ConfigData)
		if err != nil {
			return patch, err
		}
		patch.ConfigData = data
	}
	if req.SyncFrequency != nil {
		freq := integration.SyncFrequency(*req.SyncFrequency)
		patch.SyncFrequency = &freq
	}
	if req.EnabledDataTypes != nil {
		dataTypes, err := parseDataTypes(*req.EnabledDataTypes)
		if err != nil {
			return patch, err
		}
		patch.EnabledDataTypes = &dataTypes
	}
	return patch, nil
}

// List returns the tenant's configs, newest first
func (s *ConfigService) List(ctx context.Context, tenantID uuid.UUID) ([]IntegrationResponse, error) {
	cfgs, err := s.repo.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToIntegrationResponses(cfgs), nil
}

// Get returns one config
func (s *ConfigService) Get(ctx context.Context, id uuid.UUID) (*IntegrationResponse, error) {
	cfg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToIntegrationResponse(cfg)
	return &resp, nil
}

// Delete removes a config. Deleting an unknown id succeeds; its audit entry
// then carries a nil tenant. Jobs and audit entries of the config are kept.
func (s *ConfigService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	tenantID := uuid.Nil
	details := map[string]any{"operation": "delete"}
	if deleted != nil {
		tenantID = deleted.TenantID
		details["name"] = deleted.Name
	}
	s.audit.Record(ctx, tenantID, id, integration.AuditActionConfigUpdated, details)
	for _, fn := range s.onDelete {
		fn(id)
	}
	return nil
}

func (s *ConfigService) find(ctx context.Context, id uuid.UUID) (*integration.IntegrationConfig, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, integration.ErrConfigNotFound) {
			return nil, integration.NewNotFoundError("integration")
		}
		return nil, err
	}
	return cfg, nil
}
