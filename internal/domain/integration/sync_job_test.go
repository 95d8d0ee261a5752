package integration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// SyncJob Tests
// ---------------------------------------------------------------------------

func newRunningJob(t *testing.T) *SyncJob {
	t.Helper()
	job, err := NewSyncJob(uuid.New(), uuid.New(), JobTypeExport, DataTypeCustomers)
	require.NoError(t, err)
	require.NoError(t, job.Start())
	return job
}

func TestNewSyncJob(t *testing.T) {
	tenantID := uuid.New()
	integrationID := uuid.New()

	t.Run("Valid job is pending", func(t *testing.T) {
		job, err := NewSyncJob(tenantID, integrationID, JobTypeSync, DataTypeInvoices)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, job.ID)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.Nil(t, job.StartedAt)
		assert.Nil(t, job.CompletedAt)
		assert.Zero(t, job.RecordsProcessed)
	})

	t.Run("Empty job type defaults to export", func(t *testing.T) {
		job, err := NewSyncJob(tenantID, integrationID, "", DataTypeInvoices)
		require.NoError(t, err)
		assert.Equal(t, JobTypeExport, job.JobType)
	})

	t.Run("Invalid inputs", func(t *testing.T) {
		_, err := NewSyncJob(uuid.Nil, integrationID, JobTypeSync, DataTypeSales)
		assert.ErrorIs(t, err, ErrInvalidTenantID)

		_, err = NewSyncJob(tenantID, uuid.Nil, JobTypeSync, DataTypeSales)
		assert.ErrorIs(t, err, ErrInvalidIntegrationID)

		_, err = NewSyncJob(tenantID, integrationID, "bogus", DataTypeSales)
		assert.ErrorIs(t, err, ErrInvalidJobType)

		_, err = NewSyncJob(tenantID, integrationID, JobTypeSync, "orders")
		assert.ErrorIs(t, err, ErrInvalidDataType)
	})
}

func TestSyncJob_StateMachine(t *testing.T) {
	t.Run("Start sets started_at", func(t *testing.T) {
		job := newRunningJob(t)
		assert.Equal(t, JobStatusRunning, job.Status)
		assert.NotNil(t, job.StartedAt)
		assert.ErrorIs(t, job.Start(), ErrInvalidJobTransition)
	})

	t.Run("Complete with failed records is still completed", func(t *testing.T) {
		job := newRunningJob(t)
		require.NoError(t, job.RecordSuccess())
		require.NoError(t, job.RecordFailure())
		require.NoError(t, job.Complete())

		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.Equal(t, 2, job.RecordsProcessed)
		assert.Equal(t, 1, job.RecordsFailed)
		assert.Empty(t, job.ErrorMessage)
		assert.NotNil(t, job.CompletedAt)
	})

	t.Run("Fail keeps partial counters", func(t *testing.T) {
		job := newRunningJob(t)
		require.NoError(t, job.RecordSuccess())
		require.NoError(t, job.RecordSuccess())
		require.NoError(t, job.Fail("credentials expired"))

		assert.Equal(t, JobStatusFailed, job.Status)
		assert.Equal(t, "credentials expired", job.ErrorMessage)
		assert.Equal(t, 2, job.RecordsProcessed)
		assert.True(t, job.CountersConsistent())
	})

	t.Run("Terminal states are final", func(t *testing.T) {
		completed := newRunningJob(t)
		require.NoError(t, completed.Complete())
		assert.ErrorIs(t, completed.Fail("late"), ErrInvalidJobTransition)
		assert.ErrorIs(t, completed.Complete(), ErrInvalidJobTransition)
		assert.ErrorIs(t, completed.RecordSuccess(), ErrInvalidJobTransition)

		failed := newRunningJob(t)
		require.NoError(t, failed.Fail("boom"))
		assert.ErrorIs(t, failed.Complete(), ErrInvalidJobTransition)
		assert.ErrorIs(t, failed.RecordFailure(), ErrInvalidJobTransition)
	})

	t.Run("Pending job cannot count records", func(t *testing.T) {
		job, err := NewSyncJob(uuid.New(), uuid.New(), JobTypeExport, DataTypeCustomers)
		require.NoError(t, err)
		assert.ErrorIs(t, job.RecordSuccess(), ErrInvalidJobTransition)
		assert.ErrorIs(t, job.Complete(), ErrInvalidJobTransition)
	})

	t.Run("Empty fail message gets a default", func(t *testing.T) {
		job := newRunningJob(t)
		require.NoError(t, job.Fail(""))
		assert.NotEmpty(t, job.ErrorMessage)
	})
}

func TestSyncJob_CounterInvariant(t *testing.T) {
	job := newRunningJob(t)
	for i := 0; i < 50; i++ {
		if i%3 == 0 {
			require.NoError(t, job.RecordFailure())
		} else {
			require.NoError(t, job.RecordSuccess())
		}
		assert.True(t, job.CountersConsistent(), "after record %d", i)
	}
	assert.Equal(t, 50, job.RecordsProcessed)
	assert.Equal(t, 17, job.RecordsFailed)
	assert.Equal(t, 33, job.RecordsSuccessful)
}
