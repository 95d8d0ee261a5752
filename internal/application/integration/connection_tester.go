package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConnectionTester checks an integration's credentials without touching jobs
// or mappings. Inactive configs can be tested so operators can verify them
// before enabling.
type ConnectionTester struct {
	configs  integration.IntegrationConfigRepository
	registry *integration.AdapterRegistry
	audit    *AuditService
	logger   *zap.Logger
}

// NewConnectionTester creates a new ConnectionTester
func NewConnectionTester(
	configs integration.IntegrationConfigRepository,
	registry *integration.AdapterRegistry,
	audit *AuditService,
	logger *zap.Logger,
) *ConnectionTester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionTester{configs: configs, registry: registry, audit: audit, logger: logger}
}

// Test runs the adapter's connection check. Adapter errors and timeouts are
// reported as an unsuccessful result, not as an error.
func (t *ConnectionTester) Test(ctx context.Context, id uuid.UUID) (*ConnectionResultResponse, error) {
	cfg, err := t.configs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, integration.ErrConfigNotFound) {
			return nil, integration.NewNotFoundError("integration")
		}
		return nil, err
	}

	result := t.run(ctx, cfg)

	t.audit.Record(ctx, cfg.TenantID, cfg.ID, integration.AuditActionConnectionTest, map[string]any{
		"success": result.Success,
		"message": result.Message,
	})
	return &ConnectionResultResponse{
		Success: result.Success,
		Message: result.Message,
		Details: result.Details,
	}, nil
}

func (t *ConnectionTester) run(ctx context.Context, cfg *integration.IntegrationConfig) integration.ConnectionResult {
	factory, err := t.registry.Resolve(cfg.IntegrationType)
	if err != nil {
		return integration.ConnectionResult{Message: err.Error()}
	}
	adapter, err := factory.New(cfg)
	if err != nil {
		return integration.ConnectionResult{Message: err.Error()}
	}

	limits := factory.Limits().Normalize()
	callCtx, cancel := context.WithTimeout(ctx, limits.CallTimeout)
	defer cancel()

	result, err := adapter.TestConnection(callCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return integration.ConnectionResult{
				Message: fmt.Sprintf("connection test timed out after %s", limits.CallTimeout),
			}
		}
		t.logger.Info("connection test failed",
			zap.String("integration_id", cfg.ID.String()),
			zap.Error(err),
		)
		return integration.ConnectionResult{Message: err.Error()}
	}
	return result
}
