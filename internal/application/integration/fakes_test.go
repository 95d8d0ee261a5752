package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/cache"
	"github.com/erp/syncengine/internal/infrastructure/persistence"
	"github.com/erp/syncengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ---------------------------------------------------------------------------
// Fake adapter
// ---------------------------------------------------------------------------

type fakeAdapter struct {
	mu      sync.Mutex
	system  string
	pushes  []integration.PushRequest
	reject  map[string]error
	nextID  int
	gate    chan struct{}
	started chan string

	testResult integration.ConnectionResult
	testErr    error
	testBlocks bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{system: string(integration.IntegrationTypeCustom), reject: map[string]error{}}
}

func (a *fakeAdapter) System() string { return a.system }

func (a *fakeAdapter) SupportedDataTypes() []integration.DataType {
	return []integration.DataType{integration.DataTypeCustomers, integration.DataTypeInvoices}
}

func (a *fakeAdapter) Push(ctx context.Context, req integration.PushRequest) (integration.ExternalRef, error) {
	if a.started != nil {
		a.started <- req.Record.ID
	}
	if a.gate != nil {
		<-a.gate
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushes = append(a.pushes, req)
	if err, ok := a.reject[req.Record.ID]; ok {
		return integration.ExternalRef{}, err
	}
	if !req.IsCreate() {
		return integration.ExternalRef{ExternalID: req.ExternalID}, nil
	}
	a.nextID++
	return integration.ExternalRef{ExternalID: fmt.Sprintf("ext-%d", a.nextID)}, nil
}

func (a *fakeAdapter) TestConnection(ctx context.Context) (integration.ConnectionResult, error) {
	if a.testBlocks {
		<-ctx.Done()
		return integration.ConnectionResult{}, ctx.Err()
	}
	return a.testResult, a.testErr
}

func (a *fakeAdapter) pushed() []integration.PushRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]integration.PushRequest(nil), a.pushes...)
}

type fakeFactory struct {
	adapter *fakeAdapter
	limits  integration.AdapterLimits
	newErr  error
}

func (f *fakeFactory) Type() integration.IntegrationType { return integration.IntegrationTypeCustom }

func (f *fakeFactory) SupportedDataTypes() []integration.DataType {
	return f.adapter.SupportedDataTypes()
}

func (f *fakeFactory) Limits() integration.AdapterLimits { return f.limits }

func (f *fakeFactory) New(*integration.IntegrationConfig) (integration.Adapter, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	return f.adapter, nil
}

// ---------------------------------------------------------------------------
// Fake local records
// ---------------------------------------------------------------------------

type fakeRecordSource struct {
	mu      sync.Mutex
	records map[integration.DataType][]integration.LocalRecord
	stamped map[string]string
	listErr error
}

func newFakeRecordSource() *fakeRecordSource {
	return &fakeRecordSource{
		records: map[integration.DataType][]integration.LocalRecord{},
		stamped: map[string]string{},
	}
}

func (s *fakeRecordSource) add(dt integration.DataType, ids ...string) {
	for _, id := range ids {
		s.records[dt] = append(s.records[dt], integration.LocalRecord{
			ID:       id,
			DataType: dt,
			Fields:   map[string]any{"name": "record " + id},
		})
	}
}

func (s *fakeRecordSource) ListRecords(_ context.Context, _ uuid.UUID, dt integration.DataType) ([]integration.LocalRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.records[dt], nil
}

func (s *fakeRecordSource) StampExternalID(_ context.Context, _ uuid.UUID, _ integration.DataType, recordID, _, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamped[recordID] = externalID
	return nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type syncHarness struct {
	db           *gorm.DB
	configs      *persistence.GormIntegrationConfigRepository
	jobs         *persistence.GormSyncJobRepository
	mappings     *persistence.GormRecordMappingRepository
	auditRepo    *persistence.GormAuditLogRepository
	recordErrors *persistence.GormSyncRecordErrorRepository
	records      *fakeRecordSource
	adapter      *fakeAdapter
	factory      *fakeFactory
	locker       *cache.InMemoryJobLocker
	audit        *AuditService
	orchestrator *SyncOrchestrator
	tester       *ConnectionTester
	configSvc    *ConfigService
	tenantID     uuid.UUID
}

func newSyncHarness(t *testing.T) *syncHarness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllIntegrationModels()...))

	h := &syncHarness{
		db:           db,
		configs:      persistence.NewGormIntegrationConfigRepository(db, nil),
		jobs:         persistence.NewGormSyncJobRepository(db),
		mappings:     persistence.NewGormRecordMappingRepository(db),
		auditRepo:    persistence.NewGormAuditLogRepository(db),
		recordErrors: persistence.NewGormSyncRecordErrorRepository(db),
		records:      newFakeRecordSource(),
		adapter:      newFakeAdapter(),
		locker:       cache.NewInMemoryJobLocker(),
		tenantID:     uuid.New(),
	}
	h.factory = &fakeFactory{
		adapter: h.adapter,
		limits:  integration.AdapterLimits{Workers: 1, RatePerSecond: 1000, Burst: 1000, CallTimeout: time.Second},
	}
	registry := integration.NewAdapterRegistry(h.factory)
	h.audit = NewAuditService(h.auditRepo, nil, nil)
	h.orchestrator = NewSyncOrchestrator(SyncOrchestratorDeps{
		Configs:      h.configs,
		Jobs:         h.jobs,
		Mappings:     h.mappings,
		RecordErrors: h.recordErrors,
		Records:      h.records,
		Registry:     registry,
		Locker:       h.locker,
		Audit:        h.audit,
	}, OrchestratorConfig{ProgressFlushEvery: 2})
	h.tester = NewConnectionTester(h.configs, registry, h.audit, nil)
	h.configSvc = NewConfigService(h.configs, h.audit)
	h.configSvc.OnDelete(h.orchestrator.ForgetIntegration)
	return h
}

func (h *syncHarness) createConfig(t *testing.T) *integration.IntegrationConfig {
	t.Helper()
	cfg, err := integration.NewIntegrationConfig(h.tenantID, "Webhook", integration.IntegrationTypeCustom,
		&integration.CustomConfig{WebhookURL: "https://hooks.example.com/erp"},
		integration.SyncFrequencyManual, nil)
	require.NoError(t, err)
	require.NoError(t, h.configs.Create(context.Background(), cfg))
	return cfg
}

func (h *syncHarness) auditActions(t *testing.T, integrationID uuid.UUID) []integration.AuditAction {
	t.Helper()
	entries, err := h.auditRepo.ListByIntegration(context.Background(), integrationID, 100)
	require.NoError(t, err)
	actions := make([]integration.AuditAction, len(entries))
	for i, e := range entries {
		actions[len(entries)-1-i] = e.Action
	}
	return actions
}
