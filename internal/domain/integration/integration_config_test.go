package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTaxConfig() *TaxGatewayConfig {
	return &TaxGatewayConfig{
		Endpoint:      "https://einvoice.example.gov/api",
		TaxpayerID:    "TP12345",
		APIKey:        "key-123",
		SigningSecret: "0123456789abcdef",
		Environment:   "sandbox",
	}
}

func validCustomConfig() *CustomConfig {
	return &CustomConfig{WebhookURL: "https://hooks.example.com/erp"}
}

func TestNewIntegrationConfig(t *testing.T) {
	tenantID := uuid.New()

	t.Run("Valid config is active", func(t *testing.T) {
		cfg, err := NewIntegrationConfig(tenantID, "E-invoicing", IntegrationTypeTaxGateway,
			validTaxConfig(), SyncFrequencyDaily, []DataType{DataTypeSales})
		require.NoError(t, err)
		assert.True(t, cfg.IsActive)
		assert.Equal(t, SyncFrequencyDaily, cfg.SyncFrequency)
		assert.Nil(t, cfg.LastSyncAt)
		assert.Equal(t, []DataType{DataTypeSales}, cfg.EnabledDataTypes)
	})

	t.Run("Empty frequency defaults to manual", func(t *testing.T) {
		cfg, err := NewIntegrationConfig(tenantID, "Hook", IntegrationTypeCustom, validCustomConfig(), "", nil)
		require.NoError(t, err)
		assert.Equal(t, SyncFrequencyManual, cfg.SyncFrequency)
	})

	tests := []struct {
		name    string
		tenant  uuid.UUID
		cfgName string
		typ     IntegrationType
		data    ConfigData
		freq    SyncFrequency
		types   []DataType
		wantErr error
	}{
		{"nil tenant", uuid.Nil, "x", IntegrationTypeCustom, validCustomConfig(), SyncFrequencyManual, nil, ErrInvalidTenantID},
		{"empty name", tenantID, "", IntegrationTypeCustom, validCustomConfig(), SyncFrequencyManual, nil, ErrNameRequired},
		{"missing type", tenantID, "x", "", validCustomConfig(), SyncFrequencyManual, nil, ErrInvalidIntegrationType},
		{"bad frequency", tenantID, "x", IntegrationTypeCustom, validCustomConfig(), "monthly", nil, ErrInvalidSyncFrequency},
		{"nil data", tenantID, "x", IntegrationTypeCustom, nil, SyncFrequencyManual, nil, ErrConfigDataRequired},
		{"type mismatch", tenantID, "x", IntegrationTypeCustom, validTaxConfig(), SyncFrequencyManual, nil, ErrConfigDataTypeMismatch},
		{"bad data type", tenantID, "x", IntegrationTypeCustom, validCustomConfig(), SyncFrequencyManual, []DataType{"orders"}, ErrInvalidDataType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIntegrationConfig(tt.tenant, tt.cfgName, tt.typ, tt.data, tt.freq, tt.types)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("Schema failure", func(t *testing.T) {
		bad := validTaxConfig()
		bad.Environment = "staging"
		_, err := NewIntegrationConfig(tenantID, "x", IntegrationTypeTaxGateway, bad, SyncFrequencyManual, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "environment")
	})
}

func TestIntegrationConfig_ApplyPatch(t *testing.T) {
	newCfg := func(t *testing.T) *IntegrationConfig {
		cfg, err := NewIntegrationConfig(uuid.New(), "Hook", IntegrationTypeCustom, validCustomConfig(), SyncFrequencyManual, nil)
		require.NoError(t, err)
		return cfg
	}

	t.Run("Only supplied fields change", func(t *testing.T) {
		cfg := newCfg(t)
		before := cfg.UpdatedAt
		time.Sleep(time.Millisecond)

		inactive := false
		changed, err := cfg.ApplyPatch(IntegrationConfigPatch{IsActive: &inactive})
		require.NoError(t, err)
		assert.Equal(t, []string{"is_active"}, changed)
		assert.False(t, cfg.IsActive)
		assert.Equal(t, "Hook", cfg.Name)
		assert.True(t, cfg.UpdatedAt.After(before))
	})

	t.Run("Unchanged values are not reported", func(t *testing.T) {
		cfg := newCfg(t)
		name := "Hook"
		changed, err := cfg.ApplyPatch(IntegrationConfigPatch{Name: &name})
		require.NoError(t, err)
		assert.Empty(t, changed)
	})

	t.Run("Config data replaced", func(t *testing.T) {
		cfg := newCfg(t)
		freq := SyncFrequencyHourly
		types := []DataType{DataTypeCustomers}
		changed, err := cfg.ApplyPatch(IntegrationConfigPatch{
			ConfigData:       &CustomConfig{WebhookURL: "https://other.example.com"},
			SyncFrequency:    &freq,
			EnabledDataTypes: &types,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"config_data", "sync_frequency", "enabled_data_types"}, changed)
	})

	t.Run("Invalid patch leaves config untouched", func(t *testing.T) {
		cfg := newCfg(t)
		name := "Renamed"
		_, err := cfg.ApplyPatch(IntegrationConfigPatch{Name: &name, ConfigData: validTaxConfig()})
		assert.ErrorIs(t, err, ErrConfigDataTypeMismatch)
		assert.Equal(t, "Hook", cfg.Name)
	})
}

func TestIntegrationConfig_IsDue(t *testing.T) {
	now := time.Now()
	cfg, err := NewIntegrationConfig(uuid.New(), "Hook", IntegrationTypeCustom, validCustomConfig(), SyncFrequencyHourly, nil)
	require.NoError(t, err)

	assert.True(t, cfg.IsDue(now), "never synced")

	cfg.MarkSynced(now.Add(-30 * time.Minute))
	assert.False(t, cfg.IsDue(now))

	cfg.MarkSynced(now.Add(-61 * time.Minute))
	assert.True(t, cfg.IsDue(now))

	cfg.IsActive = false
	assert.False(t, cfg.IsDue(now))

	cfg.IsActive = true
	cfg.SyncFrequency = SyncFrequencyManual
	assert.False(t, cfg.IsDue(now))
}

func TestIntegrationConfig_ScheduledDataTypes(t *testing.T) {
	supported := []DataType{DataTypeSales, DataTypePurchases, DataTypeInventory}
	cfg := &IntegrationConfig{}
	assert.Equal(t, supported, cfg.ScheduledDataTypes(supported))

	cfg.EnabledDataTypes = []DataType{DataTypeSales, DataTypeCustomers}
	assert.Equal(t, []DataType{DataTypeSales}, cfg.ScheduledDataTypes(supported))
}
