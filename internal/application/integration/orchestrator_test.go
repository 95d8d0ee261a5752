package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T: %v", err, err)
	assert.Equal(t, code, domainErr.Code)
}

func customersRequest(id uuid.UUID) RunSyncRequest {
	return RunSyncRequest{IntegrationID: id, DataType: string(integration.DataTypeCustomers)}
}

func TestRunSync_AllRecordsSucceed(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2", "c3")
	ctx := context.Background()

	job, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)

	assert.Equal(t, string(integration.JobStatusCompleted), job.Status)
	assert.Equal(t, string(integration.JobTypeExport), job.JobType)
	assert.Equal(t, 3, job.RecordsProcessed)
	assert.Equal(t, 3, job.RecordsSuccessful)
	assert.Equal(t, 0, job.RecordsFailed)
	assert.Empty(t, job.ErrorMessage)
	assert.NotNil(t, job.CompletedAt)

	mappings, err := h.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)
	assert.Len(t, mappings, 3)
	assert.Len(t, h.records.stamped, 3)

	stored, err := h.jobs.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.JobStatusCompleted, stored.Status)
	assert.True(t, stored.CountersConsistent())

	updated, err := h.configs.FindByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastSyncAt)

	assert.ElementsMatch(t,
		[]integration.AuditAction{integration.AuditActionSyncStarted, integration.AuditActionSyncCompleted},
		h.auditActions(t, cfg.ID))
	assert.False(t, h.locker.Held(jobLockKey(cfg.ID, integration.DataTypeCustomers)))
}

func TestRunSync_RejectedRecordIsContained(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2", "c3")
	h.adapter.reject["c2"] = integration.NewContainedError("c2", "invalid tax number", nil)
	ctx := context.Background()

	job, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)

	assert.Equal(t, string(integration.JobStatusCompleted), job.Status)
	assert.Equal(t, 3, job.RecordsProcessed)
	assert.Equal(t, 2, job.RecordsSuccessful)
	assert.Equal(t, 1, job.RecordsFailed)

	mappings, err := h.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "c1", mappings[0].LocalEntityID)
	assert.Equal(t, "c3", mappings[1].LocalEntityID)

	recordErrors, err := h.orchestrator.GetSyncJobErrors(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, recordErrors, 1)
	assert.Equal(t, "c2", recordErrors[0].RecordID)
	assert.Contains(t, recordErrors[0].Message, "invalid tax number")
}

func TestRunSync_UnclassifiedAdapterErrorIsContained(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2")
	h.adapter.reject["c1"] = errors.New("unexpected response")

	job, err := h.orchestrator.RunSync(context.Background(), customersRequest(cfg.ID))
	require.NoError(t, err)
	assert.Equal(t, string(integration.JobStatusCompleted), job.Status)
	assert.Equal(t, 1, job.RecordsFailed)
	assert.Equal(t, 1, job.RecordsSuccessful)
}

func TestRunSync_ExpiredCredentialsFailJob(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2", "c3")
	h.factory.newErr = integration.NewFatalError("access token expired", integration.ErrCredentialsExpired)
	ctx := context.Background()

	job, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)

	assert.Equal(t, string(integration.JobStatusFailed), job.Status)
	assert.Equal(t, 0, job.RecordsProcessed)
	assert.Contains(t, job.ErrorMessage, "credentials expired")
	assert.Empty(t, h.adapter.pushed())

	mappings, err := h.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)
	assert.Empty(t, mappings)

	updated, err := h.configs.FindByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.LastSyncAt, "a job without progress must not move last_sync_at")

	assert.ElementsMatch(t,
		[]integration.AuditAction{integration.AuditActionSyncStarted, integration.AuditActionSyncFailed},
		h.auditActions(t, cfg.ID))
}

func TestRunSync_FatalErrorKeepsPartialProgress(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2", "c3", "c4", "c5")
	h.adapter.reject["c3"] = integration.NewFatalError("credentials rejected", integration.ErrCredentialsRejected)
	ctx := context.Background()

	job, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)

	assert.Equal(t, string(integration.JobStatusFailed), job.Status)
	assert.Equal(t, 2, job.RecordsProcessed)
	assert.Equal(t, 2, job.RecordsSuccessful)
	assert.Equal(t, 0, job.RecordsFailed)
	assert.Contains(t, job.ErrorMessage, "credentials rejected")

	mappings, err := h.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)
	assert.Len(t, mappings, 2)

	stored, err := h.jobs.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.RecordsProcessed)

	updated, err := h.configs.FindByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastSyncAt, "partial progress moves last_sync_at")
}

func TestRunSync_LoadFailureFailsJob(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.listErr = errors.New("connection reset")

	job, err := h.orchestrator.RunSync(context.Background(), customersRequest(cfg.ID))
	require.NoError(t, err)
	assert.Equal(t, string(integration.JobStatusFailed), job.Status)
	assert.Contains(t, job.ErrorMessage, "failed to load local records")
}

func TestRunSync_SecondRunUpdatesExistingMappings(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2", "c3")
	ctx := context.Background()

	_, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)
	first, err := h.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)

	second, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, second.RecordsSuccessful)

	pushes := h.adapter.pushed()
	require.Len(t, pushes, 6)
	for _, p := range pushes[3:] {
		assert.False(t, p.IsCreate(), "record %s was created twice", p.Record.ID)
	}

	after, err := h.mappings.ListByIntegration(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)
	require.Len(t, after, 3)
	for i := range after {
		assert.Equal(t, first[i].ID, after[i].ID)
		assert.Equal(t, first[i].ExternalID, after[i].ExternalID)
	}
}

func TestRunSync_ConcurrentWorkersKeepCountersConsistent(t *testing.T) {
	h := newSyncHarness(t)
	h.factory.limits.Workers = 4
	cfg := h.createConfig(t)
	for i := range 40 {
		id := fmt.Sprintf("c%02d", i)
		h.records.add(integration.DataTypeCustomers, id)
		if i%5 == 0 {
			h.adapter.reject[id] = integration.NewContainedError(id, "rejected", nil)
		}
	}

	job, err := h.orchestrator.RunSync(context.Background(), customersRequest(cfg.ID))
	require.NoError(t, err)
	assert.Equal(t, string(integration.JobStatusCompleted), job.Status)
	assert.Equal(t, 40, job.RecordsProcessed)
	assert.Equal(t, 32, job.RecordsSuccessful)
	assert.Equal(t, 8, job.RecordsFailed)
}

func TestRunSync_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown integration", func(t *testing.T) {
		h := newSyncHarness(t)
		_, err := h.orchestrator.RunSync(ctx, customersRequest(uuid.New()))
		requireDomainCode(t, err, integration.CodeNotFound)
	})

	t.Run("invalid data type", func(t *testing.T) {
		h := newSyncHarness(t)
		cfg := h.createConfig(t)
		_, err := h.orchestrator.RunSync(ctx, RunSyncRequest{IntegrationID: cfg.ID, DataType: "widgets"})
		requireDomainCode(t, err, integration.CodeValidation)
	})

	t.Run("inactive config", func(t *testing.T) {
		h := newSyncHarness(t)
		cfg := h.createConfig(t)
		inactive := false
		_, err := cfg.ApplyPatch(integration.IntegrationConfigPatch{IsActive: &inactive})
		require.NoError(t, err)
		require.NoError(t, h.configs.Update(ctx, cfg))

		_, err = h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
		requireDomainCode(t, err, integration.CodeConfigInactive)
	})

	t.Run("unsupported data type", func(t *testing.T) {
		h := newSyncHarness(t)
		cfg := h.createConfig(t)
		_, err := h.orchestrator.RunSync(ctx, RunSyncRequest{IntegrationID: cfg.ID, DataType: string(integration.DataTypeInventory)})
		requireDomainCode(t, err, integration.CodeUnsupportedDataType)

		jobs, err := h.orchestrator.GetSyncJobs(ctx, cfg.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, jobs, "rejected requests must not create jobs")
	})

	t.Run("lock held elsewhere", func(t *testing.T) {
		h := newSyncHarness(t)
		cfg := h.createConfig(t)
		release, err := h.locker.Acquire(ctx, jobLockKey(cfg.ID, integration.DataTypeCustomers), time.Minute)
		require.NoError(t, err)
		defer func() { _ = release(ctx) }()

		_, err = h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
		requireDomainCode(t, err, integration.CodeSyncInProgress)
		assert.Empty(t, h.auditActions(t, cfg.ID))
	})
}

func TestRunSync_MutualExclusion(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1")
	h.records.add(integration.DataTypeInvoices, "i1")
	h.adapter.gate = make(chan struct{})
	h.adapter.started = make(chan string, 4)
	ctx := context.Background()

	running, err := h.orchestrator.RunSyncAsync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)
	assert.Equal(t, string(integration.JobStatusRunning), running.Status)
	<-h.adapter.started

	_, err = h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	requireDomainCode(t, err, integration.CodeSyncInProgress)

	// Another data type of the same integration is independent.
	invoices, err := h.orchestrator.RunSyncAsync(ctx, RunSyncRequest{
		IntegrationID: cfg.ID,
		DataType:      string(integration.DataTypeInvoices),
	})
	require.NoError(t, err)
	<-h.adapter.started

	close(h.adapter.gate)
	require.NoError(t, h.orchestrator.Wait(ctx))

	for _, id := range []uuid.UUID{running.ID, invoices.ID} {
		job, err := h.orchestrator.GetSyncJob(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, string(integration.JobStatusCompleted), job.Status)
	}
}

func TestCancelJob(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2", "c3")
	h.adapter.gate = make(chan struct{})
	h.adapter.started = make(chan string, 4)
	ctx := context.Background()

	job, err := h.orchestrator.RunSyncAsync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)
	<-h.adapter.started

	require.NoError(t, h.orchestrator.CancelJob(ctx, job.ID))
	close(h.adapter.gate)
	require.NoError(t, h.orchestrator.Wait(ctx))

	final, err := h.orchestrator.GetSyncJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(integration.JobStatusFailed), final.Status)
	assert.Equal(t, cancelledJobMessage, final.ErrorMessage)
	assert.Equal(t, 1, final.RecordsProcessed, "the in-flight record finishes")

	err = h.orchestrator.CancelJob(ctx, job.ID)
	requireDomainCode(t, err, integration.CodeInvalidState)

	err = h.orchestrator.CancelJob(ctx, uuid.New())
	requireDomainCode(t, err, integration.CodeNotFound)
}

func TestShutdown_FailsRunningJobsAndFreesTheSlot(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1", "c2", "c3")
	h.adapter.gate = make(chan struct{})
	h.adapter.started = make(chan string, 4)
	ctx := context.Background()

	job, err := h.orchestrator.RunSyncAsync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)
	<-h.adapter.started

	// the in-flight push holds the job past the deadline
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err = h.orchestrator.Shutdown(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(h.adapter.gate)
	require.NoError(t, h.orchestrator.Wait(ctx))

	final, err := h.orchestrator.GetSyncJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(integration.JobStatusFailed), final.Status)
	assert.Equal(t, cancelledJobMessage, final.ErrorMessage)
	assert.Equal(t, 1, final.RecordsProcessed)
	assert.Equal(t, final.RecordsProcessed, final.RecordsSuccessful+final.RecordsFailed)
	assert.Contains(t, h.auditActions(t, cfg.ID), integration.AuditActionSyncFailed)

	running, err := h.jobs.ExistsRunning(ctx, cfg.ID, integration.DataTypeCustomers)
	require.NoError(t, err)
	assert.False(t, running)

	// admitted without SYNC_IN_PROGRESS, then cancelled because the
	// orchestrator is stopping
	next, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, next.ID)
	assert.Equal(t, string(integration.JobStatusFailed), next.Status)
	assert.Equal(t, cancelledJobMessage, next.ErrorMessage)
	assert.Zero(t, next.RecordsProcessed)
}

func TestShutdown_NothingRunning(t *testing.T) {
	h := newSyncHarness(t)
	require.NoError(t, h.orchestrator.Shutdown(context.Background()))
}

func TestRunSync_FatalErrorWithWorkersBoundsProcessed(t *testing.T) {
	const workers = 4
	h := newSyncHarness(t)
	h.factory.limits.Workers = workers
	cfg := h.createConfig(t)
	for i := range 40 {
		h.records.add(integration.DataTypeCustomers, fmt.Sprintf("c%02d", i))
	}
	h.adapter.reject["c10"] = integration.NewFatalError("credentials rejected", integration.ErrCredentialsRejected)

	job, err := h.orchestrator.RunSync(context.Background(), customersRequest(cfg.ID))
	require.NoError(t, err)
	assert.Equal(t, string(integration.JobStatusFailed), job.Status)
	assert.Equal(t, job.RecordsProcessed, job.RecordsSuccessful+job.RecordsFailed)

	// pushes are recorded in completion order
	pushes := h.adapter.pushed()
	fatalAt := -1
	for i, p := range pushes {
		if p.Record.ID == "c10" {
			fatalAt = i
		}
	}
	require.GreaterOrEqual(t, fatalAt, 0)
	assert.Equal(t, len(pushes)-1, job.RecordsProcessed, "every other push that started finishes")
	assert.LessOrEqual(t, job.RecordsProcessed, fatalAt+workers-1)
	assert.Less(t, job.RecordsProcessed, 40)
}

func TestForgetIntegration_OnConfigDelete(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1")
	ctx := context.Background()

	_, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
	require.NoError(t, err)

	hasLimiter := func() bool {
		h.orchestrator.mu.Lock()
		defer h.orchestrator.mu.Unlock()
		_, ok := h.orchestrator.limiters[cfg.ID]
		return ok
	}
	require.True(t, hasLimiter())

	require.NoError(t, h.configSvc.Delete(ctx, cfg.ID))
	assert.False(t, hasLimiter())
}

func TestRecoverOrphanedJobs(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	ctx := context.Background()

	orphan, err := integration.NewSyncJob(cfg.TenantID, cfg.ID, integration.JobTypeExport, integration.DataTypeInvoices)
	require.NoError(t, err)
	require.NoError(t, orphan.Start())
	longAgo := time.Now().Add(-2 * time.Hour)
	orphan.StartedAt = &longAgo
	require.NoError(t, h.jobs.Create(ctx, orphan))

	fresh, err := integration.NewSyncJob(cfg.TenantID, cfg.ID, integration.JobTypeExport, integration.DataTypeCustomers)
	require.NoError(t, err)
	require.NoError(t, fresh.Start())
	require.NoError(t, h.jobs.Create(ctx, fresh))

	n, err := h.orchestrator.RecoverOrphanedJobs(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := h.jobs.FindByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.JobStatusFailed, stored.Status)
	assert.Equal(t, orphanedJobMessage, stored.ErrorMessage)

	stillRunning, err := h.jobs.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.JobStatusRunning, stillRunning.Status)

	assert.Equal(t, []integration.AuditAction{integration.AuditActionSyncFailed}, h.auditActions(t, cfg.ID))
}

func TestGetSyncJobs(t *testing.T) {
	h := newSyncHarness(t)
	cfg := h.createConfig(t)
	h.records.add(integration.DataTypeCustomers, "c1")
	ctx := context.Background()

	for range 3 {
		_, err := h.orchestrator.RunSync(ctx, customersRequest(cfg.ID))
		require.NoError(t, err)
	}

	jobs, err := h.orchestrator.GetSyncJobs(ctx, cfg.ID, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = h.orchestrator.GetSyncJob(ctx, uuid.New())
	requireDomainCode(t, err, integration.CodeNotFound)
}
