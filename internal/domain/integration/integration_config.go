package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// IntegrationConfig Aggregate
// ---------------------------------------------------------------------------

// IntegrationConfig is a tenant's connection to one external system.
// Deleting it never removes the sync jobs or audit entries that reference it.
type IntegrationConfig struct {
	// ID is the unique identifier of the config
	ID uuid.UUID
	// TenantID is the tenant owning the config
	TenantID uuid.UUID
	// Name is an operator-facing label
	Name string
	// IntegrationType selects the adapter and the ConfigData variant
	IntegrationType IntegrationType
	// IsActive gates sync requests
	IsActive bool
	// ConfigData holds the typed credentials and settings
	ConfigData ConfigData
	// SyncFrequency is the scheduler cadence
	SyncFrequency SyncFrequency
	// EnabledDataTypes are the categories the scheduler syncs. Empty means all
	// categories the adapter supports.
	EnabledDataTypes []DataType
	// LastSyncAt is stamped when a job finishes with progress
	LastSyncAt *time.Time
	// CreatedAt is when the config was created
	CreatedAt time.Time
	// UpdatedAt is refreshed on every update
	UpdatedAt time.Time
}

// NewIntegrationConfig creates a validated, active config
func NewIntegrationConfig(
	tenantID uuid.UUID,
	name string,
	integrationType IntegrationType,
	data ConfigData,
	frequency SyncFrequency,
	dataTypes []DataType,
) (*IntegrationConfig, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenantID
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	if !integrationType.IsValid() {
		return nil, ErrInvalidIntegrationType
	}
	if frequency == "" {
		frequency = SyncFrequencyManual
	}
	if !frequency.IsValid() {
		return nil, ErrInvalidSyncFrequency
	}
	if err := validateConfigData(integrationType, data); err != nil {
		return nil, err
	}
	if err := validateDataTypes(dataTypes); err != nil {
		return nil, err
	}

	now := time.Now()
	return &IntegrationConfig{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             name,
		IntegrationType:  integrationType,
		IsActive:         true,
		ConfigData:       data,
		SyncFrequency:    frequency,
		EnabledDataTypes: append([]DataType(nil), dataTypes...),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func validateConfigData(t IntegrationType, data ConfigData) error {
	if data == nil {
		return ErrConfigDataRequired
	}
	if data.IntegrationType() != t {
		return ErrConfigDataTypeMismatch
	}
	return data.Validate()
}

func validateDataTypes(dataTypes []DataType) error {
	for _, dt := range dataTypes {
		if !dt.IsValid() {
			return ErrInvalidDataType
		}
	}
	return nil
}

// IntegrationConfigPatch is a partial update. Nil fields are left unchanged.
// The integration type is fixed at creation.
type IntegrationConfigPatch struct {
	Name             *string
	IsActive         *bool
	ConfigData       ConfigData
	SyncFrequency    *SyncFrequency
	EnabledDataTypes *[]DataType
}

// ApplyPatch applies the supplied fields and returns the names of the fields
// that changed. UpdatedAt is refreshed even when nothing changed. The config is
// left untouched when the patch is invalid.
func (c *IntegrationConfig) ApplyPatch(p IntegrationConfigPatch) ([]string, error) {
	if p.Name != nil && *p.Name == "" {
		return nil, ErrNameRequired
	}
	if p.SyncFrequency != nil && !p.SyncFrequency.IsValid() {
		return nil, ErrInvalidSyncFrequency
	}
	if p.ConfigData != nil {
		if err := validateConfigData(c.IntegrationType, p.ConfigData); err != nil {
			return nil, err
		}
	}
	if p.EnabledDataTypes != nil {
		if err := validateDataTypes(*p.EnabledDataTypes); err != nil {
			return nil, err
		}
	}

	changed := make([]string, 0, 5)
	if p.Name != nil && *p.Name != c.Name {
		c.Name = *p.Name
		changed = append(changed, "name")
	}
	if p.IsActive != nil && *p.IsActive != c.IsActive {
		c.IsActive = *p.IsActive
		changed = append(changed, "is_active")
	}
	if p.ConfigData != nil {
		c.ConfigData = p.ConfigData
		changed = append(changed, "config_data")
	}
	if p.SyncFrequency != nil && *p.SyncFrequency != c.SyncFrequency {
		c.SyncFrequency = *p.SyncFrequency
		changed = append(changed, "sync_frequency")
	}
	if p.EnabledDataTypes != nil && !sameDataTypes(*p.EnabledDataTypes, c.EnabledDataTypes) {
		c.EnabledDataTypes = append([]DataType(nil), (*p.EnabledDataTypes)...)
		changed = append(changed, "enabled_data_types")
	}
	c.UpdatedAt = time.Now()
	return changed, nil
}

func sameDataTypes(a, b []DataType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MarkSynced records the completion time of a job
func (c *IntegrationConfig) MarkSynced(at time.Time) {
	c.LastSyncAt = &at
}

// IsDue reports whether the scheduler should start a sync at now
func (c *IntegrationConfig) IsDue(now time.Time) bool {
	interval := c.SyncFrequency.Interval()
	if !c.IsActive || interval == 0 {
		return false
	}
	if c.LastSyncAt == nil {
		return true
	}
	return !now.Before(c.LastSyncAt.Add(interval))
}

// ScheduledDataTypes returns the enabled data types that the adapter supports.
// An empty EnabledDataTypes selects everything supported.
func (c *IntegrationConfig) ScheduledDataTypes(supported []DataType) []DataType {
	if len(c.EnabledDataTypes) == 0 {
		return append([]DataType(nil), supported...)
	}
	out := make([]DataType, 0, len(c.EnabledDataTypes))
	for _, dt := range c.EnabledDataTypes {
		for _, s := range supported {
			if dt == s {
				out = append(out, dt)
				break
			}
		}
	}
	return out
}
