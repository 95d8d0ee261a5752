package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Sync outcomes used as metric labels
const (
	SyncOutcomeSuccess = "success"
	SyncOutcomeFailure = "failure"
)

// SyncMetrics records record pushes and job outcomes of the sync engine.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	pushTotal    *Counter
	pushDuration *Histogram
	jobTotal     *Counter
	jobRecords   *Counter
	jobDuration  *Histogram

	runningJobs *Gauge
	seenMu      sync.Mutex
	seenTypes   map[string]struct{}

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	runningProvider RunningJobsProvider
}

// RunningJobsProvider reports how many jobs are running per integration type.
// It lets the telemetry layer read job state without depending on the domain.
type RunningJobsProvider interface {
	CountRunningByType(ctx context.Context) (map[string]int64, error)
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	RunningProvider RunningJobsProvider
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		runningProvider: cfg.RunningProvider,
		seenTypes:       make(map[string]struct{}),
	}

	var err error

	sm.pushTotal, err = NewCounter(cfg.Meter,
		"erp_sync_push_total",
		"Total number of record pushes to external systems",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	sm.pushDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "erp_sync_push_duration_seconds",
		Description: "Duration of a single external push call",
		Unit:        "s",
		Boundaries:  PushDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.jobTotal, err = NewCounter(cfg.Meter,
		"erp_sync_jobs_total",
		"Total number of sync jobs that reached a terminal state",
		"{jobs}",
	)
	if err != nil {
		return nil, err
	}

	sm.jobRecords, err = NewCounter(cfg.Meter,
		"erp_sync_job_records_total",
		"Records processed by finished sync jobs",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	sm.jobDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "erp_sync_job_duration_seconds",
		Description: "Wall-clock duration of sync jobs",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.runningJobs, err = NewGauge(cfg.Meter,
		"erp_sync_jobs_running",
		"Sync jobs currently in the running state",
		"{jobs}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordPush records one adapter call.
func (sm *SyncMetrics) RecordPush(ctx context.Context, integrationType, dataType string, success bool, d time.Duration) {
	outcome := SyncOutcomeSuccess
	if !success {
		outcome = SyncOutcomeFailure
	}
	sm.pushTotal.Inc(ctx,
		AttrIntegrationType.String(integrationType),
		AttrDataType.String(dataType),
		AttrSyncOutcome.String(outcome),
	)
	sm.pushDuration.RecordDuration(ctx, d,
		AttrIntegrationType.String(integrationType),
		AttrDataType.String(dataType),
	)
}

// RecordJob records a job that reached a terminal state.
func (sm *SyncMetrics) RecordJob(ctx context.Context, integrationType, dataType, status string, successful, failed int, d time.Duration) {
	sm.jobTotal.Inc(ctx,
		AttrIntegrationType.String(integrationType),
		AttrDataType.String(dataType),
		AttrJobStatus.String(status),
	)
	if successful > 0 {
		sm.jobRecords.Add(ctx, int64(successful),
			AttrIntegrationType.String(integrationType),
			AttrSyncOutcome.String(SyncOutcomeSuccess),
		)
	}
	if failed > 0 {
		sm.jobRecords.Add(ctx, int64(failed),
			AttrIntegrationType.String(integrationType),
			AttrSyncOutcome.String(SyncOutcomeFailure),
		)
	}
	sm.jobDuration.RecordDuration(ctx, d,
		AttrIntegrationType.String(integrationType),
		AttrJobStatus.String(status),
	)
}

// RecordRunningJobs records the running job gauge for one integration type.
func (sm *SyncMetrics) RecordRunningJobs(ctx context.Context, integrationType string, count int64) {
	sm.runningJobs.Record(ctx, count, AttrIntegrationType.String(integrationType))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection samples the running job gauge every interval
// (default: 1 minute). It is non-blocking; use Stop() to stop collection.
func (sm *SyncMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go sm.runPeriodicCollection(ctx, interval)
	})
}

func (sm *SyncMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.CollectRunningJobs(ctx)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic sync metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.CollectRunningJobs(ctx)
		}
	}
}

// CollectRunningJobs samples the running job gauge once. Types that had
// running jobs in an earlier sample are reset to zero.
func (sm *SyncMetrics) CollectRunningJobs(ctx context.Context) {
	if sm.runningProvider == nil {
		sm.logger.Debug("No running jobs provider configured, skipping collection")
		return
	}

	counts, err := sm.runningProvider.CountRunningByType(ctx)
	if err != nil {
		sm.logger.Warn("Failed to count running sync jobs", zap.Error(err))
		return
	}

	sm.seenMu.Lock()
	defer sm.seenMu.Unlock()
	for integrationType := range sm.seenTypes {
		if _, ok := counts[integrationType]; !ok {
			sm.RecordRunningJobs(ctx, integrationType, 0)
		}
	}
	for integrationType, count := range counts {
		sm.seenTypes[integrationType] = struct{}{}
		sm.RecordRunningJobs(ctx, integrationType, count)
	}
}

// Stop stops the periodic collection.
func (sm *SyncMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
