package integration

import (
	"errors"
	"fmt"

	"github.com/erp/syncengine/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidTenantID        = errors.New("integration: invalid tenant ID")
	ErrInvalidIntegrationID   = errors.New("integration: invalid integration ID")
	ErrInvalidIntegrationType = errors.New("integration: invalid integration type")
	ErrInvalidSyncFrequency   = errors.New("integration: invalid sync frequency")
	ErrInvalidDataType        = errors.New("integration: invalid data type")
	ErrInvalidJobType         = errors.New("integration: invalid job type")
	ErrConfigDataRequired     = errors.New("integration: config data is required")
	ErrConfigDataTypeMismatch = errors.New("integration: config data does not match integration type")
	ErrNameRequired           = errors.New("integration: name is required")

	ErrConfigNotFound  = errors.New("integration: integration config not found")
	ErrSyncJobNotFound = errors.New("integration: sync job not found")

	ErrInvalidJobTransition = errors.New("integration: invalid sync job state transition")
	ErrInvalidAuditAction   = errors.New("integration: invalid audit action")
	ErrMappingKeyIncomplete = errors.New("integration: mapping key is incomplete")
	ErrExternalIDRequired   = errors.New("integration: external ID is required")

	ErrAdapterNotRegistered = errors.New("integration: no adapter registered for integration type")
	ErrCredentialsExpired   = errors.New("integration: credentials expired")
	ErrCredentialsRejected  = errors.New("integration: credentials rejected by external system")
	ErrEndpointUnreachable  = errors.New("integration: external endpoint unreachable")
	ErrJobCancelled         = errors.New("integration: sync cancelled")
	ErrJobStale             = errors.New("integration: sync exceeded its liveness deadline")
	ErrSyncLockHeld         = errors.New("integration: sync lock held by another run")
)

// ---------------------------------------------------------------------------
// Caller-facing domain errors
// ---------------------------------------------------------------------------

// Domain error codes surfaced to API callers
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConfigInactive      = "CONFIG_INACTIVE"
	CodeSyncInProgress      = "SYNC_IN_PROGRESS"
	CodeUnsupportedDataType = "UNSUPPORTED_DATA_TYPE"
	CodeInvalidState        = "INVALID_STATE"
)

// NewValidationError wraps a malformed-input failure
func NewValidationError(err error) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, err.Error())
}

// NewNotFoundError reports a missing resource
func NewNotFoundError(resource string) *shared.DomainError {
	return shared.NewDomainError(CodeNotFound, resource+" not found")
}

// NewConfigInactiveError reports a sync request against an inactive config
func NewConfigInactiveError() *shared.DomainError {
	return shared.NewDomainError(CodeConfigInactive, "integration is not active")
}

// NewSyncInProgressError reports a held job lock
func NewSyncInProgressError(dataType DataType) *shared.DomainError {
	return shared.NewDomainError(CodeSyncInProgress,
		fmt.Sprintf("a %s sync is already running for this integration", dataType))
}

// NewUnsupportedDataTypeError reports a data type the adapter cannot push
func NewUnsupportedDataTypeError(t IntegrationType, dataType DataType) *shared.DomainError {
	return shared.NewDomainError(CodeUnsupportedDataType,
		fmt.Sprintf("%s integrations do not support %s", t, dataType))
}

// ---------------------------------------------------------------------------
// Adapter error classification
// ---------------------------------------------------------------------------

// ContainedRecordError rejects a single record. The job records the failure
// and moves on to the next record.
type ContainedRecordError struct {
	RecordID string
	Reason   string
	Err      error
}

func (e *ContainedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %s rejected: %s: %v", e.RecordID, e.Reason, e.Err)
	}
	return fmt.Sprintf("record %s rejected: %s", e.RecordID, e.Reason)
}

func (e *ContainedRecordError) Unwrap() error {
	return e.Err
}

// NewContainedError builds a ContainedRecordError
func NewContainedError(recordID, reason string, err error) *ContainedRecordError {
	return &ContainedRecordError{RecordID: recordID, Reason: reason, Err: err}
}

// FatalSyncError aborts the whole job: bad credentials, unreachable endpoint,
// or a broken local store.
type FatalSyncError struct {
	Reason string
	Err    error
}

func (e *FatalSyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FatalSyncError) Unwrap() error {
	return e.Err
}

// NewFatalError builds a FatalSyncError
func NewFatalError(reason string, err error) *FatalSyncError {
	return &FatalSyncError{Reason: reason, Err: err}
}

// IsFatal reports whether err must abort the enclosing job.
// Unclassified adapter errors are treated as contained.
func IsFatal(err error) bool {
	var fatal *FatalSyncError
	return errors.As(err, &fatal)
}

// IsContained reports whether err is a record-level rejection
func IsContained(err error) bool {
	return err != nil && !IsFatal(err)
}
