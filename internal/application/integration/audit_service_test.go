package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memoryArchiver struct {
	objects map[string][]byte
}

func (a *memoryArchiver) Archive(_ context.Context, key string, body []byte) (string, error) {
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = body
	return "mem://" + key, nil
}

func TestAuditService_ListClampsLimit(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	repo := new(MockAuditLogRepository)
	svc := NewAuditService(repo, nil, nil)

	repo.On("ListByIntegration", ctx, id, DefaultAuditPageSize).Return([]integration.AuditLogEntry{}, nil).Once()
	repo.On("ListByIntegration", ctx, id, MaxAuditPageSize).Return([]integration.AuditLogEntry{}, nil).Once()
	repo.On("ListByIntegration", ctx, id, 7).Return([]integration.AuditLogEntry{}, nil).Once()

	for _, limit := range []int{0, 100000, 7} {
		_, err := svc.List(ctx, id, limit)
		require.NoError(t, err)
	}
	repo.AssertExpectations(t)
}

func TestAuditService_Export(t *testing.T) {
	ctx := context.Background()
	tenantID, id := uuid.New(), uuid.New()

	t.Run("writes json lines", func(t *testing.T) {
		repo := new(MockAuditLogRepository)
		archiver := &memoryArchiver{}
		svc := NewAuditService(repo, archiver, nil)

		started, err := integration.NewAuditLogEntry(tenantID, id, integration.AuditActionSyncStarted, map[string]any{"job_id": "j1"})
		require.NoError(t, err)
		completed, err := integration.NewAuditLogEntry(tenantID, id, integration.AuditActionSyncCompleted, nil)
		require.NoError(t, err)
		repo.On("ListByIntegration", ctx, id, mock.AnythingOfType("int")).
			Return([]integration.AuditLogEntry{*completed, *started}, nil)

		resp, err := svc.Export(ctx, tenantID, id)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Entries)
		assert.True(t, strings.HasPrefix(resp.Location, "mem://integrations/"+tenantID.String()))

		require.Len(t, archiver.objects, 1)
		for _, body := range archiver.objects {
			scanner := bufio.NewScanner(bytes.NewReader(body))
			lines := 0
			for scanner.Scan() {
				var row AuditLogResponse
				require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
				assert.Equal(t, id, row.IntegrationID)
				lines++
			}
			assert.Equal(t, 2, lines)
		}
	})

	t.Run("disabled without archiver", func(t *testing.T) {
		svc := NewAuditService(new(MockAuditLogRepository), nil, nil)
		_, err := svc.Export(ctx, tenantID, id)
		assert.ErrorIs(t, err, ErrAuditArchiveDisabled)
	})
}
