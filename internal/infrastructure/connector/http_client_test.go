package connector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/syncengine/internal/domain/integration"
)

func fastRetry() Option {
	return WithRetryPolicy(RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*apiClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return newAPIClient("test", server.URL, buildOptions([]Option{fastRetry()})), server
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.delay(0, ""))
	assert.Equal(t, 400*time.Millisecond, p.delay(2, ""))
	assert.Equal(t, time.Second, p.delay(5, ""))
	assert.Equal(t, time.Second, p.delay(0, "30"), "Retry-After is capped")
	assert.Equal(t, time.Duration(0), p.delay(0, "0"))
	assert.Equal(t, 100*time.Millisecond, p.delay(0, "soon"))
}

func TestAPIClient_DecodesSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/things", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"id":"t-1"}`))
	})

	var out accountingResponse
	err := client.do(context.Background(), http.MethodPost, "/v1/things", map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "t-1", out.ID)
}

func TestAPIClient_CredentialFailuresAreFatal(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"token revoked"}`))
		})

		err := client.do(context.Background(), http.MethodGet, "/", nil, nil)
		require.Error(t, err)
		assert.True(t, integration.IsFatal(err))
		assert.ErrorIs(t, err, integration.ErrCredentialsRejected)
		assert.Contains(t, err.Error(), "token revoked")
	}
}

func TestAPIClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"message":"email is invalid"}}`))
	})

	err := client.do(context.Background(), http.MethodPost, "/", struct{}{}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Equal(t, "email is invalid", statusErr.Message)
	assert.False(t, integration.IsFatal(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIClient_RetriesThrottledCalls(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"ok"}`))
	})

	var out accountingResponse
	require.NoError(t, client.do(context.Background(), http.MethodPost, "/", struct{}{}, &out))
	assert.Equal(t, "ok", out.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAPIClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	})

	err := client.do(context.Background(), http.MethodGet, "/", nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "maintenance", statusErr.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAPIClient_RetryStopsAtDeadline(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	client := newAPIClient("test", server.URL, buildOptions(nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := client.do(ctx, http.MethodGet, "/", nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIClient_UnreachableEndpointIsFatal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newAPIClient("test", url, buildOptions(nil))
	err := client.do(context.Background(), http.MethodGet, "/", nil, nil)

	require.Error(t, err)
	assert.True(t, integration.IsFatal(err))
	assert.ErrorIs(t, err, integration.ErrEndpointUnreachable)
}

func TestAPIClient_TimeoutIsContained(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := client.do(ctx, http.MethodGet, "/", nil, nil)

	require.Error(t, err)
	assert.False(t, integration.IsFatal(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	contained := rejectRecord("r-1", err)
	var recErr *integration.ContainedRecordError
	require.ErrorAs(t, contained, &recErr)
	assert.Equal(t, "call timed out", recErr.Reason)
}

func TestRejectRecord(t *testing.T) {
	fatal := integration.NewFatalError("down", integration.ErrEndpointUnreachable)
	assert.Same(t, fatal, rejectRecord("r", fatal))
	assert.NoError(t, rejectRecord("r", nil))

	var recErr *integration.ContainedRecordError
	require.ErrorAs(t, rejectRecord("r", &StatusError{StatusCode: 400}), &recErr)
	assert.Equal(t, "rejected by external system", recErr.Reason)

	require.ErrorAs(t, rejectRecord("r", errors.New("reset")), &recErr)
	assert.Equal(t, "push failed", recErr.Reason)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", errorMessage([]byte(`{"message":"bad"}`)))
	assert.Equal(t, "worse", errorMessage([]byte(`{"error":"worse"}`)))
	assert.Equal(t, "nested", errorMessage([]byte(`{"error":{"message":"nested"}}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("  plain text\n")))
	assert.Len(t, errorMessage(make([]byte, 1000)), maxErrorMessageLength)
}
