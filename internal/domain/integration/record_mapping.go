package integration

import (
	"time"

	"github.com/google/uuid"
)

// MappingKey identifies one local entity in one external system
type MappingKey struct {
	TenantID        uuid.UUID
	LocalEntityType DataType
	LocalEntityID   string
	ExternalSystem  string
}

// Validate checks that every key part is present
func (k MappingKey) Validate() error {
	if k.TenantID == uuid.Nil || !k.LocalEntityType.IsValid() || k.LocalEntityID == "" || k.ExternalSystem == "" {
		return ErrMappingKeyIncomplete
	}
	return nil
}

// ExternalRecordMapping records that a local entity has been pushed to an
// external system under ExternalID. At most one mapping exists per key.
type ExternalRecordMapping struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	IntegrationID   uuid.UUID
	LocalEntityType DataType
	LocalEntityID   string
	ExternalSystem  string
	ExternalID      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewExternalRecordMapping creates a mapping for key
func NewExternalRecordMapping(key MappingKey, integrationID uuid.UUID, externalID string) (*ExternalRecordMapping, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if externalID == "" {
		return nil, ErrExternalIDRequired
	}
	now := time.Now()
	return &ExternalRecordMapping{
		ID:              uuid.New(),
		TenantID:        key.TenantID,
		IntegrationID:   integrationID,
		LocalEntityType: key.LocalEntityType,
		LocalEntityID:   key.LocalEntityID,
		ExternalSystem:  key.ExternalSystem,
		ExternalID:      externalID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Key returns the mapping key
func (m *ExternalRecordMapping) Key() MappingKey {
	return MappingKey{
		TenantID:        m.TenantID,
		LocalEntityType: m.LocalEntityType,
		LocalEntityID:   m.LocalEntityID,
		ExternalSystem:  m.ExternalSystem,
	}
}
