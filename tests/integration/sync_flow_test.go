package integration

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/erp/syncengine/internal/application/integration"
	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/infrastructure/cache"
	"github.com/erp/syncengine/internal/infrastructure/connector"
	"github.com/erp/syncengine/internal/infrastructure/persistence"
	"github.com/erp/syncengine/internal/infrastructure/secrets"
)

// ledgerServer fakes the accounting platform's contacts API
type ledgerServer struct {
	*httptest.Server
	mu      sync.Mutex
	reject  map[string]string
	creates int
	updates int
}

func newLedgerServer(t *testing.T) *ledgerServer {
	t.Helper()
	ls := &ledgerServer{reject: map[string]string{}}
	ls.Server = httptest.NewServer(http.HandlerFunc(ls.serve))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *ledgerServer) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	reference, _ := body["reference"].(string)

	ls.mu.Lock()
	defer ls.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if msg, ok := ls.reject[reference]; ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/contacts":
		ls.creates++
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "contact-" + reference})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v1/contacts/"):
		ls.updates++
		_ = json.NewEncoder(w).Encode(map[string]string{"id": strings.TrimPrefix(r.URL.Path, "/v1/contacts/")})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (ls *ledgerServer) counts() (creates, updates int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.creates, ls.updates
}

type syncEnv struct {
	db           *TestDB
	configs      *persistence.GormIntegrationConfigRepository
	jobs         *persistence.GormSyncJobRepository
	mappings     *persistence.GormRecordMappingRepository
	recordErrors *persistence.GormSyncRecordErrorRepository
	orchestrator *app.SyncOrchestrator
	tenantID     uuid.UUID
}

func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()
	tdb := NewTestDB(t)

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cipher, err := secrets.New(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	env := &syncEnv{
		db:           tdb,
		configs:      persistence.NewGormIntegrationConfigRepository(tdb.DB, cipher),
		jobs:         persistence.NewGormSyncJobRepository(tdb.DB),
		mappings:     persistence.NewGormRecordMappingRepository(tdb.DB),
		recordErrors: persistence.NewGormSyncRecordErrorRepository(tdb.DB),
		tenantID:     uuid.New(),
	}

	registry := connector.NewRegistry(connector.WithRetryPolicy(connector.RetryPolicy{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}))
	env.orchestrator = app.NewSyncOrchestrator(app.SyncOrchestratorDeps{
		Configs:      env.configs,
		Jobs:         env.jobs,
		Mappings:     env.mappings,
		RecordErrors: env.recordErrors,
		Records:      persistence.NewGormLocalRecordSource(tdb.DB, nil),
		Registry:     registry,
		Locker:       cache.NewInMemoryJobLocker(),
		Audit:        app.NewAuditService(persistence.NewGormAuditLogRepository(tdb.DB), nil, nil),
	}, app.DefaultOrchestratorConfig())
	return env
}

func (e *syncEnv) createAccountingConfig(t *testing.T, baseURL string, expiresAt *time.Time) *integration.IntegrationConfig {
	t.Helper()
	cfg, err := integration.NewIntegrationConfig(e.tenantID, "Ledger", integration.IntegrationTypeAccountingPlatform,
		&integration.AccountingPlatformConfig{
			BaseURL:        baseURL,
			ClientID:       "client",
			ClientSecret:   "secret",
			AccessToken:    "access-token",
			TokenExpiresAt: expiresAt,
			OrganizationID: "org-1",
		},
		integration.SyncFrequencyManual, nil)
	require.NoError(t, err)
	require.NoError(t, e.configs.Create(context.Background(), cfg))
	return cfg
}

func (e *syncEnv) seedCustomers(count int) {
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("c-%03d", i)
		e.db.CreateCustomer(e.tenantID, id, "Customer "+id, id+"@example.test")
	}
}

func (e *syncEnv) runCustomers(t *testing.T, integrationID uuid.UUID) *app.SyncJobResponse {
	t.Helper()
	job, err := e.orchestrator.RunSync(context.Background(), app.RunSyncRequest{
		IntegrationID: integrationID,
		DataType:      string(integration.DataTypeCustomers),
	})
	require.NoError(t, err)
	return job
}

func TestSyncFlow_CredentialsAreEncryptedAtRest(t *testing.T) {
	env := newSyncEnv(t)
	cfg := env.createAccountingConfig(t, "https://ledger.example.com", nil)

	var stored string
	require.NoError(t, env.db.DB.Raw(`SELECT config_data FROM integration_configs WHERE id = ?`, cfg.ID).Scan(&stored).Error)
	assert.True(t, strings.HasPrefix(stored, "enc:v1:"))
	assert.NotContains(t, stored, "access-token")

	loaded, err := env.configs.FindByID(context.Background(), cfg.ID)
	require.NoError(t, err)
	data, ok := loaded.ConfigData.(*integration.AccountingPlatformConfig)
	require.True(t, ok)
	assert.Equal(t, "access-token", data.AccessToken)
}

func TestSyncFlow_ExportsAndStampsCustomers(t *testing.T) {
	env := newSyncEnv(t)
	ledger := newLedgerServer(t)
	cfg := env.createAccountingConfig(t, ledger.URL, nil)
	env.seedCustomers(3)
	ctx := context.Background()

	job := env.runCustomers(t, cfg.ID)

	assert.Equal(t, string(integration.JobStatusCompleted), job.Status)
	assert.Equal(t, 3, job.RecordsProcessed)
	assert.Equal(t, 3, job.RecordsSuccessful)
	assert.Equal(t, 0, job.RecordsFailed)

	mappings, err := env.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)
	assert.Len(t, mappings, 3)
	assert.Equal(t, "contact-c-002", env.db.CustomerExternalID("c-002"))

	creates, updates := ledger.counts()
	assert.Equal(t, 3, creates)
	assert.Equal(t, 0, updates)

	updated, err := env.configs.FindByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastSyncAt)

	t.Run("second run updates instead of creating", func(t *testing.T) {
		again := env.runCustomers(t, cfg.ID)
		assert.Equal(t, string(integration.JobStatusCompleted), again.Status)
		assert.Equal(t, 3, again.RecordsSuccessful)

		creates, updates := ledger.counts()
		assert.Equal(t, 3, creates)
		assert.Equal(t, 3, updates)

		mappings, err := env.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
		require.NoError(t, err)
		assert.Len(t, mappings, 3)

		history, err := env.jobs.ListByIntegration(ctx, cfg.ID, 10)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestSyncFlow_RejectedRecordDoesNotFailJob(t *testing.T) {
	env := newSyncEnv(t)
	ledger := newLedgerServer(t)
	ledger.reject["c-002"] = "duplicate tax number"
	cfg := env.createAccountingConfig(t, ledger.URL, nil)
	env.seedCustomers(3)
	ctx := context.Background()

	job := env.runCustomers(t, cfg.ID)

	assert.Equal(t, string(integration.JobStatusCompleted), job.Status)
	assert.Equal(t, 3, job.RecordsProcessed)
	assert.Equal(t, 2, job.RecordsSuccessful)
	assert.Equal(t, 1, job.RecordsFailed)

	recordErrors, err := env.recordErrors.ListByJob(ctx, job.ID, 10)
	require.NoError(t, err)
	require.Len(t, recordErrors, 1)
	assert.Equal(t, "c-002", recordErrors[0].RecordID)
	assert.Contains(t, recordErrors[0].Message, "duplicate tax number")

	assert.Empty(t, env.db.CustomerExternalID("c-002"))
	assert.NotEmpty(t, env.db.CustomerExternalID("c-003"))
}

func TestSyncFlow_ExpiredCredentialsFailJob(t *testing.T) {
	env := newSyncEnv(t)
	ledger := newLedgerServer(t)
	expired := time.Now().Add(-time.Hour)
	cfg := env.createAccountingConfig(t, ledger.URL, &expired)
	env.seedCustomers(3)

	job := env.runCustomers(t, cfg.ID)

	assert.Equal(t, string(integration.JobStatusFailed), job.Status)
	assert.Equal(t, 0, job.RecordsProcessed)
	assert.NotEmpty(t, job.ErrorMessage)

	creates, updates := ledger.counts()
	assert.Zero(t, creates+updates)

	stored, err := env.jobs.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.JobStatusFailed, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}
