package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/domain/shared"
	"github.com/erp/syncengine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Job page sizes
const (
	DefaultJobPageSize         = 20
	MaxJobPageSize             = 200
	MaxRecordErrorsPageSize    = 1000
	orphanedJobMessage         = "orphaned: exceeded liveness deadline"
	cancelledJobMessage        = "sync cancelled"
	defaultProgressFlushEvery  = 25
	defaultLockTTL             = 30 * time.Second
	defaultMaxConcurrentAsyncs = 8
)

// ErrJobNotRunningHere is returned by CancelJob for a running job owned by
// another process
var ErrJobNotRunningHere = shared.NewDomainError(integration.CodeInvalidState, "Sync job is not running on this instance")

// errShuttingDown cancels the jobs still running when the process stops
var errShuttingDown = fmt.Errorf("%w: server shutting down", integration.ErrJobCancelled)

// SyncMetrics receives per-record and per-job measurements
type SyncMetrics interface {
	RecordPush(ctx context.Context, integrationType, dataType string, success bool, d time.Duration)
	RecordJob(ctx context.Context, integrationType, dataType, status string, successful, failed int, d time.Duration)
}

type noopSyncMetrics struct{}

func (noopSyncMetrics) RecordPush(context.Context, string, string, bool, time.Duration) {}

func (noopSyncMetrics) RecordJob(context.Context, string, string, string, int, int, time.Duration) {}

// OrchestratorConfig tunes the sync orchestrator
type OrchestratorConfig struct {
	// MaxWorkers caps the per-job worker count of every adapter. 0 = no cap.
	MaxWorkers int
	// WorkerOverrides replaces the adapter's worker count per integration type
	WorkerOverrides map[integration.IntegrationType]int
	// ProgressFlushEvery is the number of records between progress writes
	ProgressFlushEvery int
	// LockTTL is the lease of the distributed job lock
	LockTTL time.Duration
	// MaxConcurrentAsync bounds background runs started by RunSyncAsync
	MaxConcurrentAsync int
}

// DefaultOrchestratorConfig returns the defaults
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		ProgressFlushEvery: defaultProgressFlushEvery,
		LockTTL:            defaultLockTTL,
		MaxConcurrentAsync: defaultMaxConcurrentAsyncs,
	}
}

// SyncOrchestratorDeps groups the collaborators of the orchestrator
type SyncOrchestratorDeps struct {
	Configs      integration.IntegrationConfigRepository
	Jobs         integration.SyncJobRepository
	Mappings     integration.RecordMappingRepository
	RecordErrors integration.SyncRecordErrorRepository
	Records      integration.LocalRecordSource
	Registry     *integration.AdapterRegistry
	Locker       integration.JobLocker
	Audit        *AuditService
	Metrics      SyncMetrics
	Logger       *zap.Logger
}

// SyncOrchestrator runs sync jobs: it pushes every local record of one data
// type through the integration's adapter, keeps the record mappings and job
// counters, and always leaves the job in a terminal state.
type SyncOrchestrator struct {
	configs      integration.IntegrationConfigRepository
	jobs         integration.SyncJobRepository
	mappings     integration.RecordMappingRepository
	recordErrors integration.SyncRecordErrorRepository
	records      integration.LocalRecordSource
	registry     *integration.AdapterRegistry
	locker       integration.JobLocker
	audit        *AuditService
	metrics      SyncMetrics
	logger       *zap.Logger
	cfg          OrchestratorConfig

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
	running  map[uuid.UUID]context.CancelCauseFunc
	stopping bool

	asyncSlots chan struct{}
	asyncWG    sync.WaitGroup
}

// NewSyncOrchestrator creates a new SyncOrchestrator
func NewSyncOrchestrator(deps SyncOrchestratorDeps, cfg OrchestratorConfig) *SyncOrchestrator {
	if cfg.ProgressFlushEvery <= 0 {
		cfg.ProgressFlushEvery = defaultProgressFlushEvery
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.MaxConcurrentAsync <= 0 {
		cfg.MaxConcurrentAsync = defaultMaxConcurrentAsyncs
	}
	if deps.Metrics == nil {
		deps.Metrics = noopSyncMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SyncOrchestrator{
		configs:      deps.Configs,
		jobs:         deps.Jobs,
		mappings:     deps.Mappings,
		recordErrors: deps.RecordErrors,
		records:      deps.Records,
		registry:     deps.Registry,
		locker:       deps.Locker,
		audit:        deps.Audit,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		cfg:          cfg,
		limiters:     make(map[uuid.UUID]*rate.Limiter),
		running:      make(map[uuid.UUID]context.CancelCauseFunc),
		asyncSlots:   make(chan struct{}, cfg.MaxConcurrentAsync),
	}
}

// syncRun carries one admitted job through execution
type syncRun struct {
	ctx        context.Context
	cfg        *integration.IntegrationConfig
	factory    integration.AdapterFactory
	factoryErr error
	job        *integration.SyncJob
	release    func(context.Context) error
}

// ---------------------------------------------------------------------------
// Running syncs
// ---------------------------------------------------------------------------

// RunSync runs one job to completion and returns it in its terminal state.
// Rejections that happen before a job exists are returned as errors; every
// failure after that is reported through the returned job.
func (o *SyncOrchestrator) RunSync(ctx context.Context, req RunSyncRequest) (*SyncJobResponse, error) {
	run, err := o.admit(ctx, ctx, req)
	if err != nil {
		return nil, err
	}
	job := o.execute(run)
	resp := ToSyncJobResponse(job)
	return &resp, nil
}

// RunSyncAsync admits a job and runs it in the background. The returned job
// is running; poll GetSyncJob for its outcome.
func (o *SyncOrchestrator) RunSyncAsync(ctx context.Context, req RunSyncRequest) (*SyncJobResponse, error) {
	run, err := o.admit(ctx, context.WithoutCancel(ctx), req)
	if err != nil {
		return nil, err
	}
	resp := ToSyncJobResponse(run.job)

	o.asyncWG.Add(1)
	go func() {
		defer o.asyncWG.Done()
		o.asyncSlots <- struct{}{}
		defer func() { <-o.asyncSlots }()
		o.execute(run)
	}()
	return &resp, nil
}

// Wait blocks until every background run has finished or ctx is done
func (o *SyncOrchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.asyncWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels every job running on this instance and waits for them to
// reach a terminal state. Cancelled jobs fail with their partial counters.
// Jobs admitted after Shutdown are cancelled as soon as they start.
func (o *SyncOrchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.stopping = true
	cancels := make([]context.CancelCauseFunc, 0, len(o.running))
	for _, cancel := range o.running {
		cancels = append(cancels, cancel)
	}
	o.mu.Unlock()

	if len(cancels) > 0 {
		o.logger.Info("cancelling running sync jobs", zap.Int("jobs", len(cancels)))
	}
	for _, cancel := range cancels {
		cancel(errShuttingDown)
	}
	return o.Wait(ctx)
}

// RunScheduledSync runs a cadence-triggered sync. The job's outcome is
// persisted, so only admission failures are returned.
func (o *SyncOrchestrator) RunScheduledSync(ctx context.Context, integrationID uuid.UUID, dataType integration.DataType) error {
	_, err := o.RunSync(ctx, RunSyncRequest{
		IntegrationID: integrationID,
		DataType:      string(dataType),
		JobType:       string(integration.JobTypeSync),
	})
	return err
}

// admit validates the request, takes the job lock and persists the running
// job. runCtx is the parent of the job's execution context.
func (o *SyncOrchestrator) admit(ctx, runCtx context.Context, req RunSyncRequest) (*syncRun, error) {
	dataType := integration.DataType(req.DataType)
	if !dataType.IsValid() {
		return nil, integration.NewValidationError(integration.ErrInvalidDataType)
	}
	jobType := integration.JobType(req.JobType)
	if jobType != "" && !jobType.IsValid() {
		return nil, integration.NewValidationError(integration.ErrInvalidJobType)
	}

	cfg, err := o.configs.FindByID(ctx, req.IntegrationID)
	if err != nil {
		if errors.Is(err, integration.ErrConfigNotFound) {
			return nil, integration.NewNotFoundError("integration")
		}
		return nil, err
	}
	if !cfg.IsActive {
		return nil, integration.NewConfigInactiveError()
	}

	factory, factoryErr := o.registry.Resolve(cfg.IntegrationType)
	if factoryErr == nil && !integration.SupportsDataType(factory, dataType) {
		return nil, integration.NewUnsupportedDataTypeError(cfg.IntegrationType, dataType)
	}

	release, err := o.locker.Acquire(ctx, jobLockKey(cfg.ID, dataType), o.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, integration.ErrSyncLockHeld) {
			return nil, integration.NewSyncInProgressError(dataType)
		}
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}

	job, err := o.startJob(ctx, cfg, jobType, dataType)
	if err != nil {
		o.releaseLock(ctx, release)
		return nil, err
	}

	o.audit.Record(ctx, cfg.TenantID, cfg.ID, integration.AuditActionSyncStarted, map[string]any{
		"job_id":    job.ID.String(),
		"job_type":  string(job.JobType),
		"data_type": string(job.DataType),
	})

	execCtx, cancel := context.WithCancelCause(runCtx)
	o.mu.Lock()
	o.running[job.ID] = cancel
	if o.stopping {
		cancel(errShuttingDown)
	}
	o.mu.Unlock()

	return &syncRun{
		ctx:        execCtx,
		cfg:        cfg,
		factory:    factory,
		factoryErr: factoryErr,
		job:        job,
		release:    release,
	}, nil
}

func (o *SyncOrchestrator) startJob(
	ctx context.Context,
	cfg *integration.IntegrationConfig,
	jobType integration.JobType,
	dataType integration.DataType,
) (*integration.SyncJob, error) {
	running, err := o.jobs.ExistsRunning(ctx, cfg.ID, dataType)
	if err != nil {
		return nil, err
	}
	if running {
		return nil, integration.NewSyncInProgressError(dataType)
	}

	job, err := integration.NewSyncJob(cfg.TenantID, cfg.ID, jobType, dataType)
	if err != nil {
		return nil, integration.NewValidationError(err)
	}
	if err := job.Start(); err != nil {
		return nil, err
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// execute drives an admitted job to a terminal state
func (o *SyncOrchestrator) execute(run *syncRun) *integration.SyncJob {
	ctx, span := telemetry.StartServiceSpan(run.ctx, "integration_sync", "run",
		telemetry.SpanIntegrationID.String(run.cfg.ID.String()),
		telemetry.SpanIntegrationType.String(string(run.cfg.IntegrationType)),
		telemetry.SpanTenantID.String(run.cfg.TenantID.String()),
		telemetry.SpanDataType.String(string(run.job.DataType)),
		telemetry.SpanJobID.String(run.job.ID.String()),
	)
	defer span.End()

	// Terminal writes must land even when the run was cancelled.
	finalCtx := context.WithoutCancel(ctx)
	defer o.finish(finalCtx, run)

	err := o.process(ctx, run)
	if err != nil {
		o.abort(finalCtx, run, err)
	} else {
		o.complete(finalCtx, run)
	}
	telemetry.FinishSpan(span, err)
	span.SetAttributes(
		telemetry.SpanRecordsProcessed.Int(run.job.RecordsProcessed),
		telemetry.SpanRecordsFailed.Int(run.job.RecordsFailed),
	)
	o.metrics.RecordJob(finalCtx, string(run.cfg.IntegrationType), string(run.job.DataType), string(run.job.Status),
		run.job.RecordsSuccessful, run.job.RecordsFailed, run.job.Duration())
	return run.job
}

func (o *SyncOrchestrator) process(ctx context.Context, run *syncRun) error {
	// cancelled while queued for an async slot
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	if run.factoryErr != nil {
		return integration.NewFatalError("no adapter for "+string(run.cfg.IntegrationType), run.factoryErr)
	}
	adapter, err := run.factory.New(run.cfg)
	if err != nil {
		if integration.IsFatal(err) {
			return err
		}
		return integration.NewFatalError("failed to build adapter", err)
	}
	records, err := o.records.ListRecords(ctx, run.cfg.TenantID, run.job.DataType)
	if err != nil {
		return integration.NewFatalError("failed to load local records", err)
	}
	return o.pushAll(ctx, run, adapter, records)
}

// pushAll feeds records to a bounded worker pool. The first fatal error or
// a cancellation stops the feed; records already handed to a worker finish.
// With W workers, a fatal error that lands after K records were processed
// leaves at most K+W-1 processed: each other worker may hold one record
// already past the limiter.
func (o *SyncOrchestrator) pushAll(
	ctx context.Context,
	run *syncRun,
	adapter integration.Adapter,
	records []integration.LocalRecord,
) error {
	limits := o.limitsFor(run.factory)
	limiter := o.limiter(run.cfg.ID, limits)
	progress := newJobProgress(run.job, o.jobs, o.cfg.ProgressFlushEvery, o.logger)

	workCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	queue := make(chan integration.LocalRecord)
	var wg sync.WaitGroup
	for range limits.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range queue {
				if workCtx.Err() != nil {
					continue
				}
				if err := o.pushRecord(workCtx, run, adapter, limiter, limits, rec, progress); err != nil {
					stop(err)
				}
			}
		}()
	}

feed:
	for _, rec := range records {
		select {
		case <-workCtx.Done():
			break feed
		case queue <- rec:
		}
	}
	close(queue)
	wg.Wait()

	if progress.processed() == len(records) {
		return nil
	}
	if err := context.Cause(workCtx); err != nil {
		return err
	}
	return nil
}

// pushRecord handles one record. It returns an error only when the job must
// abort; contained failures are counted and swallowed.
func (o *SyncOrchestrator) pushRecord(
	ctx context.Context,
	run *syncRun,
	adapter integration.Adapter,
	limiter *rate.Limiter,
	limits integration.AdapterLimits,
	rec integration.LocalRecord,
	progress *jobProgress,
) error {
	if err := limiter.Wait(ctx); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		}
		return integration.NewFatalError("rate limiter rejected wait", err)
	}

	// A record that got past the limiter runs to the end.
	recCtx := context.WithoutCancel(ctx)
	job := run.job
	key := integration.MappingKey{
		TenantID:        job.TenantID,
		LocalEntityType: job.DataType,
		LocalEntityID:   rec.ID,
		ExternalSystem:  adapter.System(),
	}
	existing, err := o.mappings.Find(recCtx, key)
	if err != nil {
		return integration.NewFatalError("failed to read record mapping", err)
	}
	req := integration.PushRequest{Record: rec}
	if existing != nil {
		req.ExternalID = existing.ExternalID
	}

	callCtx, cancel := context.WithTimeout(recCtx, limits.CallTimeout)
	started := time.Now()
	ref, err := adapter.Push(callCtx, req)
	cancel()
	if err == nil && ref.ExternalID == "" {
		ref.ExternalID = req.ExternalID
		if ref.ExternalID == "" {
			err = integration.NewContainedError(rec.ID, "external system returned no identifier", nil)
		}
	}
	o.metrics.RecordPush(recCtx, string(run.cfg.IntegrationType), string(job.DataType), err == nil, time.Since(started))

	if err != nil {
		if integration.IsFatal(err) {
			return err
		}
		progress.failure(recCtx)
		o.recordFailure(recCtx, job, rec.ID, err)
		return nil
	}

	mapping, err := integration.NewExternalRecordMapping(key, run.cfg.ID, ref.ExternalID)
	if err != nil {
		return integration.NewFatalError("invalid record mapping", err)
	}
	if err := o.mappings.Upsert(recCtx, mapping); err != nil {
		return integration.NewFatalError("failed to write record mapping", err)
	}
	if err := o.records.StampExternalID(recCtx, job.TenantID, job.DataType, rec.ID, key.ExternalSystem, ref.ExternalID); err != nil {
		o.logger.Warn("failed to stamp external id on local record",
			zap.String("job_id", job.ID.String()),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
	}
	progress.success(recCtx)
	return nil
}

func (o *SyncOrchestrator) recordFailure(ctx context.Context, job *integration.SyncJob, recordID string, cause error) {
	o.logger.Info("record rejected by external system",
		zap.String("job_id", job.ID.String()),
		zap.String("record_id", recordID),
		zap.Error(cause),
	)
	trace.SpanFromContext(ctx).AddEvent("record_rejected", trace.WithAttributes(
		telemetry.SpanRecordID.String(recordID),
	))
	if o.recordErrors == nil {
		return
	}
	if err := o.recordErrors.Append(ctx, integration.NewSyncRecordError(job, recordID, cause)); err != nil {
		o.logger.Warn("failed to store record error",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}

func (o *SyncOrchestrator) complete(ctx context.Context, run *syncRun) {
	job := run.job
	if err := job.Complete(); err != nil {
		o.logger.Error("invalid completion of sync job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	o.persistTerminal(ctx, run)
	o.audit.Record(ctx, job.TenantID, job.IntegrationID, integration.AuditActionSyncCompleted, jobAuditDetails(job))
	o.logger.Info("sync job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("data_type", string(job.DataType)),
		zap.Int("records_processed", job.RecordsProcessed),
		zap.Int("records_failed", job.RecordsFailed),
	)
}

func (o *SyncOrchestrator) abort(ctx context.Context, run *syncRun, cause error) {
	job := run.job
	if err := job.Fail(failureMessage(cause)); err != nil {
		o.logger.Error("invalid failure of sync job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	o.persistTerminal(ctx, run)
	details := jobAuditDetails(job)
	details["error"] = job.ErrorMessage
	o.audit.Record(ctx, job.TenantID, job.IntegrationID, integration.AuditActionSyncFailed, details)
	o.logger.Warn("sync job failed",
		zap.String("job_id", job.ID.String()),
		zap.String("data_type", string(job.DataType)),
		zap.Int("records_processed", job.RecordsProcessed),
		zap.Error(cause),
	)
}

// persistTerminal saves the final job. last_sync_at moves only when the job
// made progress or completed.
func (o *SyncOrchestrator) persistTerminal(ctx context.Context, run *syncRun) {
	job := run.job
	if err := o.jobs.Update(ctx, job); err != nil {
		o.logger.Error("failed to persist terminal sync job",
			zap.String("job_id", job.ID.String()),
			zap.String("status", string(job.Status)),
			zap.Error(err),
		)
	}
	if job.Status == integration.JobStatusCompleted || job.RecordsProcessed > 0 {
		at := *job.CompletedAt
		if err := o.configs.UpdateLastSyncAt(ctx, job.IntegrationID, at); err != nil {
			o.logger.Warn("failed to update last sync time",
				zap.String("integration_id", job.IntegrationID.String()),
				zap.Error(err),
			)
		} else {
			run.cfg.MarkSynced(at)
		}
	}
}

func (o *SyncOrchestrator) finish(ctx context.Context, run *syncRun) {
	o.mu.Lock()
	cancel := o.running[run.job.ID]
	delete(o.running, run.job.ID)
	o.mu.Unlock()
	if cancel != nil {
		cancel(nil)
	}
	o.releaseLock(ctx, run.release)
}

func (o *SyncOrchestrator) releaseLock(ctx context.Context, release func(context.Context) error) {
	if release == nil {
		return
	}
	if err := release(ctx); err != nil {
		o.logger.Warn("failed to release sync lock", zap.Error(err))
	}
}

func jobAuditDetails(job *integration.SyncJob) map[string]any {
	return map[string]any{
		"job_id":             job.ID.String(),
		"data_type":          string(job.DataType),
		"records_processed":  job.RecordsProcessed,
		"records_successful": job.RecordsSuccessful,
		"records_failed":     job.RecordsFailed,
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, integration.ErrJobStale):
		return orphanedJobMessage
	case errors.Is(err, integration.ErrJobCancelled), errors.Is(err, context.Canceled):
		return cancelledJobMessage
	}
	return err.Error()
}

func jobLockKey(integrationID uuid.UUID, dataType integration.DataType) string {
	return "sync:" + integrationID.String() + ":" + string(dataType)
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func (o *SyncOrchestrator) limitsFor(factory integration.AdapterFactory) integration.AdapterLimits {
	limits := factory.Limits()
	if n, ok := o.cfg.WorkerOverrides[factory.Type()]; ok && n > 0 {
		limits.Workers = n
	}
	limits = limits.Normalize()
	if o.cfg.MaxWorkers > 0 && limits.Workers > o.cfg.MaxWorkers {
		limits.Workers = o.cfg.MaxWorkers
	}
	return limits
}

// limiter returns the token bucket shared by every job of an integration
func (o *SyncOrchestrator) limiter(integrationID uuid.UUID, limits integration.AdapterLimits) *rate.Limiter {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.limiters[integrationID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(limits.RatePerSecond), limits.Burst)
		o.limiters[integrationID] = l
	}
	return l
}

// ForgetIntegration drops the rate limiter of a deleted integration. Jobs
// still running keep the limiter they already hold.
func (o *SyncOrchestrator) ForgetIntegration(integrationID uuid.UUID) {
	o.mu.Lock()
	delete(o.limiters, integrationID)
	o.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Job control and queries
// ---------------------------------------------------------------------------

// CancelJob asks a running job to stop. Workers finish the record they hold
// and the job fails with "sync cancelled".
func (o *SyncOrchestrator) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	o.mu.Lock()
	cancel, ok := o.running[jobID]
	o.mu.Unlock()
	if ok {
		cancel(integration.ErrJobCancelled)
		return nil
	}

	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, integration.ErrSyncJobNotFound) {
			return integration.NewNotFoundError("sync job")
		}
		return err
	}
	if job.IsTerminal() {
		return shared.NewDomainError(integration.CodeInvalidState, "Sync job already finished")
	}
	return ErrJobNotRunningHere
}

// GetSyncJobs returns the newest jobs of an integration
func (o *SyncOrchestrator) GetSyncJobs(ctx context.Context, integrationID uuid.UUID, limit int) ([]SyncJobResponse, error) {
	jobs, err := o.jobs.ListByIntegration(ctx, integrationID, clampLimit(limit, DefaultJobPageSize, MaxJobPageSize))
	if err != nil {
		return nil, err
	}
	return ToSyncJobResponses(jobs), nil
}

// GetSyncJob returns one job
func (o *SyncOrchestrator) GetSyncJob(ctx context.Context, jobID uuid.UUID) (*SyncJobResponse, error) {
	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, integration.ErrSyncJobNotFound) {
			return nil, integration.NewNotFoundError("sync job")
		}
		return nil, err
	}
	resp := ToSyncJobResponse(job)
	return &resp, nil
}

// GetSyncJobErrors returns the rejected records of a job
func (o *SyncOrchestrator) GetSyncJobErrors(ctx context.Context, jobID uuid.UUID) ([]SyncRecordErrorResponse, error) {
	if _, err := o.GetSyncJob(ctx, jobID); err != nil {
		return nil, err
	}
	errs, err := o.recordErrors.ListByJob(ctx, jobID, MaxRecordErrorsPageSize)
	if err != nil {
		return nil, err
	}
	return ToSyncRecordErrorResponses(errs), nil
}

// RecoverOrphanedJobs fails running jobs started more than deadline ago.
// Jobs still executing in this process are cancelled and fail themselves;
// the rest lost their process and are failed here.
func (o *SyncOrchestrator) RecoverOrphanedJobs(ctx context.Context, deadline time.Duration) (int, error) {
	stale, err := o.jobs.FindStaleRunning(ctx, time.Now().Add(-deadline))
	if err != nil {
		return 0, err
	}

	recovered := 0
	for i := range stale {
		job := &stale[i]

		o.mu.Lock()
		cancel, local := o.running[job.ID]
		o.mu.Unlock()
		if local {
			cancel(integration.ErrJobStale)
			recovered++
			continue
		}

		if err := job.Fail(orphanedJobMessage); err != nil {
			continue
		}
		if err := o.jobs.Update(ctx, job); err != nil {
			o.logger.Error("failed to fail orphaned sync job", zap.String("job_id", job.ID.String()), zap.Error(err))
			continue
		}
		details := jobAuditDetails(job)
		details["error"] = job.ErrorMessage
		o.audit.Record(ctx, job.TenantID, job.IntegrationID, integration.AuditActionSyncFailed, details)
		recovered++
	}
	if recovered > 0 {
		o.logger.Warn("recovered orphaned sync jobs", zap.Int("count", recovered))
	}
	return recovered, nil
}

// ---------------------------------------------------------------------------
// Progress
// ---------------------------------------------------------------------------

// jobProgress serialises counter updates from the workers of one job and
// periodically flushes them.
type jobProgress struct {
	mu         sync.Mutex
	job        *integration.SyncJob
	repo       integration.SyncJobRepository
	flushEvery int
	logger     *zap.Logger
}

func newJobProgress(job *integration.SyncJob, repo integration.SyncJobRepository, flushEvery int, logger *zap.Logger) *jobProgress {
	return &jobProgress{job: job, repo: repo, flushEvery: flushEvery, logger: logger}
}

func (p *jobProgress) success(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.job.RecordSuccess(); err == nil {
		p.maybeFlush(ctx)
	}
}

func (p *jobProgress) failure(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.job.RecordFailure(); err == nil {
		p.maybeFlush(ctx)
	}
}

func (p *jobProgress) processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.job.RecordsProcessed
}

func (p *jobProgress) maybeFlush(ctx context.Context) {
	if p.job.RecordsProcessed%p.flushEvery != 0 {
		return
	}
	if err := p.repo.UpdateProgress(ctx, p.job); err != nil {
		p.logger.Warn("failed to flush sync progress", zap.String("job_id", p.job.ID.String()), zap.Error(err))
	}
}
