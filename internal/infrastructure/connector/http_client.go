package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from an external system (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxErrorMessageLength truncates raw error bodies kept in error messages
const maxErrorMessageLength = 200

// RetryPolicy controls retries of throttled or temporarily unavailable calls.
// Retries never outlive the call's context deadline.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns the retry policy used by every adapter
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// delay returns the wait before retry attempt+1. A Retry-After header in
// seconds wins over the exponential backoff, capped at MaxDelay.
func (p RetryPolicy) delay(attempt int, retryAfter string) time.Duration {
	d := p.BaseDelay * time.Duration(1<<attempt)
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		d = time.Duration(secs) * time.Second
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// StatusError is a non-2xx response from an external system
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// apiClient
// ---------------------------------------------------------------------------

// apiClient sends JSON requests to one external system and classifies the
// failures: rejected credentials and unreachable endpoints are fatal, every
// other failure is left for the caller to contain.
type apiClient struct {
	system     string
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy

	// decorate adds authentication to each attempt. body is the exact
	// payload being sent.
	decorate func(req *http.Request, body []byte) error
}

func newAPIClient(system, baseURL string, opts *options) *apiClient {
	return &apiClient{
		system:     system,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.httpClient,
		retry:      opts.retry,
	}
}

// do sends in as JSON and decodes a successful response into out.
// Either may be nil.
func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", c.system, err)
		}
	}

	for attempt := 0; ; attempt++ {
		resp, body, err := c.send(ctx, method, path, payload)
		if err != nil {
			return c.transportError(ctx, err)
		}

		if resp.StatusCode < http.StatusMultipleChoices {
			if out == nil || len(bytes.TrimSpace(body)) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%s: failed to parse response: %w", c.system, err)
			}
			return nil
		}

		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return integration.NewFatalError(c.system+" rejected the credentials",
				fmt.Errorf("%w: %v", integration.ErrCredentialsRejected, statusErr))
		}
		if !retryableStatus(resp.StatusCode) || attempt >= c.retry.MaxRetries {
			return statusErr
		}

		wait := c.retry.delay(attempt, resp.Header.Get("Retry-After"))
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return statusErr
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *apiClient) send(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to create request: %w", c.system, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.decorate != nil {
		if err := c.decorate(req, payload); err != nil {
			return nil, nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to read response: %w", c.system, err)
	}
	return resp, body, nil
}

// transportError keeps timeouts contained and turns connection failures into
// a fatal unreachable-endpoint error
func (c *apiClient) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return integration.NewFatalError(c.system+" is unreachable",
			fmt.Errorf("%w: %v", integration.ErrEndpointUnreachable, err))
	}
	return fmt.Errorf("%s: request failed: %w", c.system, err)
}

// errorMessage extracts a readable message from an error response body
func errorMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		var s string
		if json.Unmarshal(payload.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessageLength {
		msg = msg[:maxErrorMessageLength]
	}
	return msg
}

// rejectRecord wraps a push failure so that anything not already fatal
// fails only the record
func rejectRecord(recordID string, err error) error {
	if err == nil || integration.IsFatal(err) {
		return err
	}
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return integration.NewContainedError(recordID, "rejected by external system", err)
	case errors.Is(err, context.DeadlineExceeded):
		return integration.NewContainedError(recordID, "call timed out", err)
	default:
		return integration.NewContainedError(recordID, "push failed", err)
	}
}
