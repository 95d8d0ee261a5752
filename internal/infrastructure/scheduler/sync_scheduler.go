package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Sync targets
// ---------------------------------------------------------------------------

// SyncTarget is one integration and data type due for a scheduled run
type SyncTarget struct {
	TenantID      uuid.UUID
	IntegrationID uuid.UUID
	DataType      integration.DataType
}

func (t SyncTarget) key() string {
	return t.IntegrationID.String() + ":" + string(t.DataType)
}

// SyncRunner runs syncs on behalf of the scheduler
type SyncRunner interface {
	// RunScheduledSync runs one sync to a terminal state. Only admission
	// failures are returned.
	RunScheduledSync(ctx context.Context, integrationID uuid.UUID, dataType integration.DataType) error

	// RecoverOrphanedJobs fails running jobs older than deadline
	RecoverOrphanedJobs(ctx context.Context, deadline time.Duration) (int, error)
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the cadence scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// MaxConcurrentJobs is the number of scheduled syncs run at once
	MaxConcurrentJobs int
	// QueueSize bounds the number of targets waiting for a worker
	QueueSize int
	// JobTimeout is the maximum time a scheduled sync can run
	JobTimeout time.Duration
	// DueCheckSpec is the cron spec of the due check
	DueCheckSpec string
	// OrphanCheckSpec is the cron spec of orphan recovery
	OrphanCheckSpec string
	// LivenessDeadline is how long a job may stay running before it is orphaned
	LivenessDeadline time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 4,
		QueueSize:         100,
		JobTimeout:        30 * time.Minute,
		DueCheckSpec:      "@every 1m",
		OrphanCheckSpec:   "@every 5m",
		LivenessDeadline:  time.Hour,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 || c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 || c.LivenessDeadline <= 0 {
		return ErrInvalidConfig
	}
	if c.LivenessDeadline < c.JobTimeout {
		return fmt.Errorf("%w: liveness deadline must not be shorter than the job timeout", ErrInvalidConfig)
	}
	if _, err := cron.ParseStandard(c.DueCheckSpec); err != nil {
		return fmt.Errorf("%w: due check spec: %v", ErrInvalidConfig, err)
	}
	if _, err := cron.ParseStandard(c.OrphanCheckSpec); err != nil {
		return fmt.Errorf("%w: orphan check spec: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler starts syncs for integrations whose frequency is due and
// fails jobs abandoned by crashed processes.
type SyncScheduler struct {
	config   SyncSchedulerConfig
	configs  integration.IntegrationConfigRepository
	registry *integration.AdapterRegistry
	runner   SyncRunner
	logger   *zap.Logger
	now      func() time.Time

	cron      *cron.Cron
	targets   chan SyncTarget
	pending   map[string]struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new cadence scheduler
func NewSyncScheduler(
	config SyncSchedulerConfig,
	configs integration.IntegrationConfigRepository,
	registry *integration.AdapterRegistry,
	runner SyncRunner,
	logger *zap.Logger,
) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncScheduler{
		config:   config,
		configs:  configs,
		registry: registry,
		runner:   runner,
		logger:   logger,
		now:      time.Now,
		pending:  make(map[string]struct{}),
	}, nil
}

// Start registers the cron entries and starts the worker pool
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	runCtx, cancel := context.WithCancel(ctx)

	if _, err := c.AddFunc(s.config.DueCheckSpec, func() { s.CheckDue(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to register due check: %w", err)
	}
	if _, err := c.AddFunc(s.config.OrphanCheckSpec, func() { s.RecoverOrphans(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to register orphan recovery: %w", err)
	}

	s.cron = c
	s.cancel = cancel
	s.targets = make(chan SyncTarget, s.config.QueueSize)
	s.pending = make(map[string]struct{})
	s.isRunning = true

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, i)
	}
	c.Start()

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.String("due_check", s.config.DueCheckSpec),
		zap.String("orphan_check", s.config.OrphanCheckSpec),
		zap.Duration("liveness_deadline", s.config.LivenessDeadline),
	)
	return nil
}

// Stop halts the cron entries, cancels running syncs and waits for the
// workers to exit
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cronDone := s.cron.Stop()
	s.cancel()
	close(s.targets)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitTarget queues one run. A target is refused while the same
// integration and data type is already queued or running.
func (s *SyncScheduler) SubmitTarget(target SyncTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	key := target.key()
	if _, ok := s.pending[key]; ok {
		return ErrTargetAlreadyQueued
	}

	select {
	case s.targets <- target:
		s.pending[key] = struct{}{}
		return nil
	default:
		return ErrJobQueueFull
	}
}

// CheckDue queues every enabled data type of each config whose frequency
// interval has elapsed since its last sync. It returns the number queued.
func (s *SyncScheduler) CheckDue(ctx context.Context) int {
	configs, err := s.configs.FindSchedulable(ctx)
	if err != nil {
		s.logger.Error("Failed to load schedulable integrations", zap.Error(err))
		return 0
	}

	now := s.now()
	queued := 0
	for i := range configs {
		cfg := &configs[i]
		if !cfg.IsDue(now) {
			continue
		}
		factory, err := s.registry.Resolve(cfg.IntegrationType)
		if err != nil {
			s.logger.Warn("No adapter for scheduled integration",
				zap.String("integration_id", cfg.ID.String()),
				zap.String("integration_type", string(cfg.IntegrationType)),
			)
			continue
		}

		for _, dt := range cfg.ScheduledDataTypes(factory.SupportedDataTypes()) {
			target := SyncTarget{TenantID: cfg.TenantID, IntegrationID: cfg.ID, DataType: dt}
			switch err := s.SubmitTarget(target); {
			case err == nil:
				queued++
			case errors.Is(err, ErrTargetAlreadyQueued):
			default:
				s.logger.Warn("Failed to queue scheduled sync",
					zap.String("integration_id", cfg.ID.String()),
					zap.String("data_type", string(dt)),
					zap.Error(err),
				)
			}
		}
	}

	if queued > 0 {
		s.logger.Debug("Queued scheduled syncs", zap.Int("count", queued))
	}
	return queued
}

// RecoverOrphans fails running jobs that outlived the liveness deadline
func (s *SyncScheduler) RecoverOrphans(ctx context.Context) int {
	n, err := s.runner.RecoverOrphanedJobs(ctx, s.config.LivenessDeadline)
	if err != nil {
		s.logger.Error("Orphaned job recovery failed", zap.Error(err))
		return 0
	}
	return n
}

func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case target, ok := <-s.targets:
			if !ok {
				return
			}
			s.process(ctx, target, workerID)
		}
	}
}

func (s *SyncScheduler) process(ctx context.Context, target SyncTarget, workerID int) {
	defer func() {
		s.mu.Lock()
		delete(s.pending, target.key())
		s.mu.Unlock()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	start := s.now()
	err := s.runner.RunScheduledSync(jobCtx, target.IntegrationID, target.DataType)

	switch {
	case err == nil:
		s.logger.Info("Scheduled sync finished",
			zap.Int("worker_id", workerID),
			zap.String("tenant_id", target.TenantID.String()),
			zap.String("integration_id", target.IntegrationID.String()),
			zap.String("data_type", string(target.DataType)),
			zap.Duration("duration", s.now().Sub(start)),
		)
	case shared.CodeOf(err) == integration.CodeSyncInProgress:
		s.logger.Debug("Scheduled sync skipped, already running",
			zap.String("integration_id", target.IntegrationID.String()),
			zap.String("data_type", string(target.DataType)),
		)
	default:
		s.logger.Error("Scheduled sync rejected",
			zap.Int("worker_id", workerID),
			zap.String("integration_id", target.IntegrationID.String()),
			zap.String("data_type", string(target.DataType)),
			zap.Error(err),
		)
	}
}
