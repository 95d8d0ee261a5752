package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeRunningProvider struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
	calls  int
}

func (p *fakeRunningProvider) set(counts map[string]int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = counts
}

func (p *fakeRunningProvider) CountRunningByType(ctx context.Context) (map[string]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]int64, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}
	return out, nil
}

func (p *fakeRunningProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newSyncMetricsWithReader(t *testing.T, provider RunningJobsProvider) (*SyncMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	sm, err := NewSyncMetrics(SyncMetricsConfig{
		Meter:           mp.Meter("sync_test"),
		Logger:          zap.NewNop(),
		RunningProvider: provider,
	})
	require.NoError(t, err)
	return sm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func metricByName(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// findMetric reports whether a metric with the given name was collected.
func findMetric(rm metricdata.ResourceMetrics, name string) bool {
	_, ok := metricByName(rm, name)
	return ok
}

// sumByAttr returns the counter value for the data point whose attr key equals value.
func sumByAttr(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	m, ok := metricByName(rm, name)
	require.True(t, ok, "metric %s not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attribute.Key(key)); found && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func gaugeByType(t *testing.T, rm metricdata.ResourceMetrics, integrationType string) (int64, bool) {
	t.Helper()
	m, ok := metricByName(rm, "erp_sync_jobs_running")
	if !ok {
		return 0, false
	}
	g, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	for _, dp := range g.DataPoints {
		if v, found := dp.Attributes.Value(AttrIntegrationType); found && v.AsString() == integrationType {
			return dp.Value, true
		}
	}
	return 0, false
}

func TestNewSyncMetrics(t *testing.T) {
	t.Run("nil meter", func(t *testing.T) {
		sm, err := NewSyncMetrics(SyncMetricsConfig{})
		assert.Nil(t, sm)
		assert.ErrorIs(t, err, ErrMeterNil)
		assert.Equal(t, "NewSyncMetrics: meter cannot be nil", err.Error())
	})

	t.Run("noop meter", func(t *testing.T) {
		sm, err := NewSyncMetrics(SyncMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
		require.NoError(t, err)
		require.NotNil(t, sm.logger)

		// recording against a noop meter must not panic
		sm.RecordPush(context.Background(), "accounting", "invoices", true, time.Second)
		sm.RecordJob(context.Background(), "accounting", "invoices", "completed", 3, 1, time.Minute)
		sm.CollectRunningJobs(context.Background())
	})
}

func TestSyncMetrics_RecordPush(t *testing.T) {
	sm, reader := newSyncMetricsWithReader(t, nil)
	ctx := context.Background()

	sm.RecordPush(ctx, "accounting", "customers", true, 120*time.Millisecond)
	sm.RecordPush(ctx, "accounting", "customers", false, 80*time.Millisecond)
	sm.RecordPush(ctx, "payment_gateway", "payments", true, 40*time.Millisecond)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumByAttr(t, rm, "erp_sync_push_total", string(AttrIntegrationType), "accounting"))
	assert.Equal(t, int64(1), sumByAttr(t, rm, "erp_sync_push_total", string(AttrSyncOutcome), SyncOutcomeFailure))
	assert.True(t, findMetric(rm, "erp_sync_push_duration_seconds"))
}

func TestSyncMetrics_RecordJob(t *testing.T) {
	sm, reader := newSyncMetricsWithReader(t, nil)
	ctx := context.Background()

	sm.RecordJob(ctx, "tax_gateway", "sales", "completed", 8, 2, 30*time.Second)
	sm.RecordJob(ctx, "tax_gateway", "sales", "failed", 0, 0, time.Second)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumByAttr(t, rm, "erp_sync_jobs_total", string(AttrIntegrationType), "tax_gateway"))
	assert.Equal(t, int64(8), sumByAttr(t, rm, "erp_sync_job_records_total", string(AttrSyncOutcome), SyncOutcomeSuccess))
	assert.Equal(t, int64(2), sumByAttr(t, rm, "erp_sync_job_records_total", string(AttrSyncOutcome), SyncOutcomeFailure))
	assert.True(t, findMetric(rm, "erp_sync_job_duration_seconds"))
}

func TestSyncMetrics_CollectRunningJobs(t *testing.T) {
	provider := &fakeRunningProvider{counts: map[string]int64{"accounting": 2, "custom": 1}}
	sm, reader := newSyncMetricsWithReader(t, provider)
	ctx := context.Background()

	sm.CollectRunningJobs(ctx)
	rm := collect(t, reader)
	v, ok := gaugeByType(t, rm, "accounting")
	require.True(t, ok)
	assert.Equal(t, int64(2), v)

	t.Run("types that stop running are reset to zero", func(t *testing.T) {
		provider.set(map[string]int64{"custom": 3})
		sm.CollectRunningJobs(ctx)

		rm := collect(t, reader)
		v, ok := gaugeByType(t, rm, "accounting")
		require.True(t, ok)
		assert.Equal(t, int64(0), v)
		v, ok = gaugeByType(t, rm, "custom")
		require.True(t, ok)
		assert.Equal(t, int64(3), v)
	})

	t.Run("provider errors are swallowed", func(t *testing.T) {
		provider.mu.Lock()
		provider.err = errors.New("db down")
		provider.mu.Unlock()

		assert.NotPanics(t, func() { sm.CollectRunningJobs(ctx) })
	})
}

func TestSyncMetrics_PeriodicCollection(t *testing.T) {
	provider := &fakeRunningProvider{counts: map[string]int64{"accounting": 1}}
	sm, _ := newSyncMetricsWithReader(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm.StartPeriodicCollection(ctx, 10*time.Millisecond)
	sm.StartPeriodicCollection(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return provider.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	sm.Stop()
	sm.Stop()
	time.Sleep(30 * time.Millisecond)
	stopped := provider.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, provider.callCount())
}

type runningConfigRow struct {
	ID              string `gorm:"primaryKey"`
	IntegrationType string
}

func (runningConfigRow) TableName() string { return "integration_configs" }

type runningJobRow struct {
	ID            string `gorm:"primaryKey"`
	IntegrationID string
	Status        string
}

func (runningJobRow) TableName() string { return "sync_jobs" }

func TestGormRunningJobsProvider_CountRunningByType(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&runningConfigRow{}, &runningJobRow{}))

	require.NoError(t, db.Create([]runningConfigRow{
		{ID: "c1", IntegrationType: "accounting"},
		{ID: "c2", IntegrationType: "custom"},
	}).Error)
	require.NoError(t, db.Create([]runningJobRow{
		{ID: "j1", IntegrationID: "c1", Status: "running"},
		{ID: "j2", IntegrationID: "c1", Status: "running"},
		{ID: "j3", IntegrationID: "c1", Status: "completed"},
		{ID: "j4", IntegrationID: "c2", Status: "failed"},
		{ID: "j5", IntegrationID: "gone", Status: "running"},
	}).Error)

	counts, err := NewGormRunningJobsProvider(db).CountRunningByType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"accounting": 2, "unknown": 1}, counts)
}
