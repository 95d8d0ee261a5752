package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Audit page sizes
const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 500
	maxAuditExportSize   = 10000
)

// ErrAuditArchiveDisabled is returned by Export when no archiver is configured
var ErrAuditArchiveDisabled = shared.NewDomainError("ARCHIVE_DISABLED", "Audit log export is not configured")

// AuditArchiver stores an exported audit log and returns its location
type AuditArchiver interface {
	Archive(ctx context.Context, key string, body []byte) (string, error)
}

// AuditService appends and lists integration audit entries.
// Recording is best-effort: a failed write never fails the caller.
type AuditService struct {
	repo     integration.AuditLogRepository
	archiver AuditArchiver
	logger   *zap.Logger
}

// NewAuditService creates a new AuditService. archiver may be nil.
func NewAuditService(repo integration.AuditLogRepository, archiver AuditArchiver, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, archiver: archiver, logger: logger}
}

// Record appends an entry. Errors are logged and swallowed.
func (s *AuditService) Record(
	ctx context.Context,
	tenantID, integrationID uuid.UUID,
	action integration.AuditAction,
	details map[string]any,
) {
	entry, err := integration.NewAuditLogEntry(tenantID, integrationID, action, details)
	if err == nil {
		err = s.repo.Append(ctx, entry)
	}
	if err != nil {
		s.logger.Warn("failed to write integration audit entry",
			zap.String("integration_id", integrationID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// List returns the newest entries of an integration. limit is clamped to
// [1, MaxAuditPageSize]; zero selects the default page size.
func (s *AuditService) List(ctx context.Context, integrationID uuid.UUID, limit int) ([]AuditLogResponse, error) {
	entries, err := s.repo.ListByIntegration(ctx, integrationID, clampLimit(limit, DefaultAuditPageSize, MaxAuditPageSize))
	if err != nil {
		return nil, err
	}
	return ToAuditLogResponses(entries), nil
}

// Export writes the integration's audit log as JSON lines to the archiver
func (s *AuditService) Export(ctx context.Context, tenantID, integrationID uuid.UUID) (*AuditExportResponse, error) {
	if s.archiver == nil {
		return nil, ErrAuditArchiveDisabled
	}
	entries, err := s.repo.ListByIntegration(ctx, integrationID, maxAuditExportSize)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range ToAuditLogResponses(entries) {
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("failed to encode audit entry %s: %w", e.ID, err)
		}
	}

	key := fmt.Sprintf("integrations/%s/%s/audit-%s.jsonl",
		tenantID, integrationID, time.Now().UTC().Format("20060102T150405Z"))
	location, err := s.archiver.Archive(ctx, key, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to archive audit log: %w", err)
	}
	return &AuditExportResponse{Location: location, Entries: len(entries)}, nil
}

func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
