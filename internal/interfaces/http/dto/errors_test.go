package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRequired, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusConflict},
		{ErrCodeConfigInactive, http.StatusUnprocessableEntity},
		{ErrCodeSyncInProgress, http.StatusConflict},
		{ErrCodeUnsupportedDataType, http.StatusBadRequest},
		{ErrCodeArchiveDisabled, http.StatusNotImplemented},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"CONFIG_INACTIVE", ErrCodeConfigInactive},
		{"SYNC_IN_PROGRESS", ErrCodeSyncInProgress},
		{"UNSUPPORTED_DATA_TYPE", ErrCodeUnsupportedDataType},
		{"ARCHIVE_DISABLED", ErrCodeArchiveDisabled},
		{ErrCodeNotFound, ErrCodeNotFound},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryDomainCodeHasAStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", domainCode, apiCode)
	}
}

func TestResponses_JSONShape(t *testing.T) {
	t.Run("success omits error and meta", func(t *testing.T) {
		b, err := json.Marshal(NewSuccessResponse(map[string]string{"status": "running"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"status":"running"}}`, string(b))
	})

	t.Run("list carries meta", func(t *testing.T) {
		b, err := json.Marshal(NewListResponse([]int{1, 2}, 2, 20))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":[1,2],"meta":{"total":2,"limit":20}}`, string(b))
	})

	t.Run("error with request id", func(t *testing.T) {
		b, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeSyncInProgress, "busy", "req-1"))
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"success":false,"error":{"code":"ERR_SYNC_IN_PROGRESS","message":"busy","request_id":"req-1"}}`,
			string(b))
	})

	t.Run("validation details", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-2",
			[]ValidationDetail{{Field: "data_type", Message: "data_type is required"}})
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "data_type", resp.Error.Details[0].Field)
	})
}
