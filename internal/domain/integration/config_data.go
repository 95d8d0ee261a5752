package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// RedactedValue replaces secrets in API responses and audit payloads
const RedactedValue = "********"

// ConfigData is the typed credential/settings blob of an IntegrationConfig.
// There is exactly one variant per IntegrationType.
type ConfigData interface {
	// IntegrationType returns the type this variant belongs to
	IntegrationType() IntegrationType
	// Validate checks the variant against its schema
	Validate() error
	// RedactedFields returns the settings with every secret masked
	RedactedFields() map[string]any
}

var (
	configValidator     *validator.Validate
	configValidatorOnce sync.Once
)

func validateStruct(v any) error {
	configValidatorOnce.Do(func() {
		configValidator = validator.New(validator.WithRequiredStructEnabled())
		configValidator.RegisterTagNameFunc(jsonTagName)
	})
	if err := configValidator.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config data: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config data: %w", err)
	}
	return nil
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return RedactedValue
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

// AccountingPlatformConfig holds OAuth credentials for a general-ledger platform
type AccountingPlatformConfig struct {
	BaseURL        string     `json:"base_url" validate:"required,url"`
	ClientID       string     `json:"client_id" validate:"required"`
	ClientSecret   string     `json:"client_secret" validate:"required"`
	AccessToken    string     `json:"access_token" validate:"required"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	OrganizationID string     `json:"organization_id" validate:"required"`
}

func (c *AccountingPlatformConfig) IntegrationType() IntegrationType {
	return IntegrationTypeAccountingPlatform
}

func (c *AccountingPlatformConfig) Validate() error {
	return validateStruct(c)
}

func (c *AccountingPlatformConfig) RedactedFields() map[string]any {
	out := map[string]any{
		"base_url":        c.BaseURL,
		"client_id":       c.ClientID,
		"client_secret":   redact(c.ClientSecret),
		"access_token":    redact(c.AccessToken),
		"organization_id": c.OrganizationID,
	}
	if c.TokenExpiresAt != nil {
		out["token_expires_at"] = c.TokenExpiresAt.UTC().Format(time.RFC3339)
	}
	return out
}

// TokenExpired reports whether the access token is past its expiry at now
func (c *AccountingPlatformConfig) TokenExpired(now time.Time) bool {
	return c.TokenExpiresAt != nil && !now.Before(*c.TokenExpiresAt)
}

// TaxGatewayConfig holds credentials for a tax-authority e-invoicing gateway
type TaxGatewayConfig struct {
	Endpoint      string `json:"endpoint" validate:"required,url"`
	TaxpayerID    string `json:"taxpayer_id" validate:"required,alphanum,min=5,max=32"`
	APIKey        string `json:"api_key" validate:"required"`
	SigningSecret string `json:"signing_secret" validate:"required,min=16"`
	Environment   string `json:"environment" validate:"required,oneof=sandbox production"`
}

func (c *TaxGatewayConfig) IntegrationType() IntegrationType {
	return IntegrationTypeTaxGateway
}

func (c *TaxGatewayConfig) Validate() error {
	return validateStruct(c)
}

func (c *TaxGatewayConfig) RedactedFields() map[string]any {
	return map[string]any{
		"endpoint":       c.Endpoint,
		"taxpayer_id":    c.TaxpayerID,
		"api_key":        redact(c.APIKey),
		"signing_secret": redact(c.SigningSecret),
		"environment":    c.Environment,
	}
}

// PaymentGatewayConfig holds merchant credentials for a payment gateway
type PaymentGatewayConfig struct {
	BaseURL    string `json:"base_url" validate:"required,url"`
	MerchantID string `json:"merchant_id" validate:"required"`
	SecretKey  string `json:"secret_key" validate:"required"`
	Currency   string `json:"currency" validate:"required,len=3,uppercase"`
}

func (c *PaymentGatewayConfig) IntegrationType() IntegrationType {
	return IntegrationTypePaymentGateway
}

func (c *PaymentGatewayConfig) Validate() error {
	return validateStruct(c)
}

func (c *PaymentGatewayConfig) RedactedFields() map[string]any {
	return map[string]any{
		"base_url":    c.BaseURL,
		"merchant_id": c.MerchantID,
		"secret_key":  redact(c.SecretKey),
		"currency":    c.Currency,
	}
}

// CustomConfig posts records to a tenant-owned webhook
type CustomConfig struct {
	WebhookURL string            `json:"webhook_url" validate:"required,url"`
	AuthHeader string            `json:"auth_header,omitempty" validate:"required_with=AuthToken"`
	AuthToken  string            `json:"auth_token,omitempty"`
	Settings   map[string]string `json:"settings,omitempty"`
}

func (c *CustomConfig) IntegrationType() IntegrationType {
	return IntegrationTypeCustom
}

func (c *CustomConfig) Validate() error {
	return validateStruct(c)
}

func (c *CustomConfig) RedactedFields() map[string]any {
	out := map[string]any{
		"webhook_url": c.WebhookURL,
		"auth_header": c.AuthHeader,
		"auth_token":  redact(c.AuthToken),
	}
	if len(c.Settings) > 0 {
		out["settings"] = c.Settings
	}
	return out
}

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

// DecodeConfigData decodes raw JSON into the variant for t and validates it.
// Unknown fields are rejected so credentials of one type cannot be stored
// under another.
func DecodeConfigData(t IntegrationType, raw []byte) (ConfigData, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, ErrConfigDataRequired
	}

	var data ConfigData
	switch t {
	case IntegrationTypeAccountingPlatform:
		data = &AccountingPlatformConfig{}
	case IntegrationTypeTaxGateway:
		data = &TaxGatewayConfig{}
	case IntegrationTypePaymentGateway:
		data = &PaymentGatewayConfig{}
	case IntegrationTypeCustom:
		data = &CustomConfig{}
	default:
		return nil, ErrInvalidIntegrationType
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(data); err != nil {
		return nil, fmt.Errorf("invalid config data for %s: %w", t, err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// EncodeConfigData marshals a variant to JSON
func EncodeConfigData(data ConfigData) ([]byte, error) {
	if data == nil {
		return nil, ErrConfigDataRequired
	}
	return json.Marshal(data)
}
