package integration

import "time"

// ---------------------------------------------------------------------------
// IntegrationType identifies the kind of external system
// ---------------------------------------------------------------------------

// IntegrationType identifies the kind of external system a config targets
type IntegrationType string

const (
	// IntegrationTypeAccountingPlatform is a general-ledger / accounting platform
	IntegrationTypeAccountingPlatform IntegrationType = "accounting_platform"
	// IntegrationTypeTaxGateway is a tax-authority e-invoicing gateway
	IntegrationTypeTaxGateway IntegrationType = "tax_gateway"
	// IntegrationTypePaymentGateway is a payment gateway
	IntegrationTypePaymentGateway IntegrationType = "payment_gateway"
	// IntegrationTypeCustom is a tenant-defined webhook target
	IntegrationTypeCustom IntegrationType = "custom"
)

// AllIntegrationTypes returns every supported integration type
func AllIntegrationTypes() []IntegrationType {
	return []IntegrationType{
		IntegrationTypeAccountingPlatform,
		IntegrationTypeTaxGateway,
		IntegrationTypePaymentGateway,
		IntegrationTypeCustom,
	}
}

// IsValid returns true if the integration type is valid
func (t IntegrationType) IsValid() bool {
	switch t {
	case IntegrationTypeAccountingPlatform, IntegrationTypeTaxGateway,
		IntegrationTypePaymentGateway, IntegrationTypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of IntegrationType
func (t IntegrationType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// SyncFrequency is the cadence a scheduler uses for a config
// ---------------------------------------------------------------------------

// SyncFrequency is the cadence used by the scheduler for a config
type SyncFrequency string

const (
	SyncFrequencyHourly SyncFrequency = "hourly"
	SyncFrequencyDaily  SyncFrequency = "daily"
	SyncFrequencyWeekly SyncFrequency = "weekly"
	SyncFrequencyManual SyncFrequency = "manual"
)

// IsValid returns true if the frequency is valid
func (f SyncFrequency) IsValid() bool {
	switch f {
	case SyncFrequencyHourly, SyncFrequencyDaily, SyncFrequencyWeekly, SyncFrequencyManual:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncFrequency
func (f SyncFrequency) String() string {
	return string(f)
}

// Interval returns the cadence as a duration. Manual returns 0.
func (f SyncFrequency) Interval() time.Duration {
	switch f {
	case SyncFrequencyHourly:
		return time.Hour
	case SyncFrequencyDaily:
		return 24 * time.Hour
	case SyncFrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// ---------------------------------------------------------------------------
// DataType is the business entity category being synchronized
// ---------------------------------------------------------------------------

// DataType is the business entity category being synchronized
type DataType string

const (
	DataTypeCustomers DataType = "customers"
	DataTypeProducts  DataType = "products"
	DataTypeInvoices  DataType = "invoices"
	DataTypePayments  DataType = "payments"
	DataTypeSales     DataType = "sales"
	DataTypePurchases DataType = "purchases"
	DataTypeInventory DataType = "inventory"
)

// AllDataTypes returns every known data type
func AllDataTypes() []DataType {
	return []DataType{
		DataTypeCustomers,
		DataTypeProducts,
		DataTypeInvoices,
		DataTypePayments,
		DataTypeSales,
		DataTypePurchases,
		DataTypeInventory,
	}
}

// IsValid returns true if the data type is valid
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeCustomers, DataTypeProducts, DataTypeInvoices, DataTypePayments,
		DataTypeSales, DataTypePurchases, DataTypeInventory:
		return true
	default:
		return false
	}
}

// String returns the string representation of DataType
func (d DataType) String() string {
	return string(d)
}

// ---------------------------------------------------------------------------
// JobType is the direction of data flow for a sync job
// ---------------------------------------------------------------------------

// JobType is the direction of data flow for a sync job
type JobType string

const (
	JobTypeImport JobType = "import"
	JobTypeExport JobType = "export"
	JobTypeSync   JobType = "sync"
)

// IsValid returns true if the job type is valid
func (j JobType) IsValid() bool {
	switch j {
	case JobTypeImport, JobTypeExport, JobTypeSync:
		return true
	default:
		return false
	}
}

// String returns the string representation of JobType
func (j JobType) String() string {
	return string(j)
}

// ---------------------------------------------------------------------------
// JobStatus is the sync job state
// ---------------------------------------------------------------------------

// JobStatus is the state of a sync job
type JobStatus string

const (
	// JobStatusPending means the job row exists but has not started
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning means records are being pushed
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted means every record was processed, whatever the per-record outcome
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed means the job could not finish iterating
	JobStatusFailed JobStatus = "failed"
)

// IsValid returns true if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed and failed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// AuditAction is the kind of audit log entry
// ---------------------------------------------------------------------------

// AuditAction is the kind of audit log entry
type AuditAction string

const (
	AuditActionSyncStarted    AuditAction = "sync_started"
	AuditActionSyncCompleted  AuditAction = "sync_completed"
	AuditActionSyncFailed     AuditAction = "sync_failed"
	AuditActionConfigUpdated  AuditAction = "config_updated"
	AuditActionConnectionTest AuditAction = "connection_test"
)

// IsValid returns true if the action is valid
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionSyncStarted, AuditActionSyncCompleted, AuditActionSyncFailed,
		AuditActionConfigUpdated, AuditActionConnectionTest:
		return true
	default:
		return false
	}
}

// String returns the string representation of AuditAction
func (a AuditAction) String() string {
	return string(a)
}
