package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/syncengine/internal/domain/integration"
)

// currencyExponents lists the currencies whose minor unit is not 1/100
var currencyExponents = map[string]int32{
	"JPY": 0, "KRW": 0, "VND": 0, "CLP": 0, "ISK": 0, "UGX": 0,
	"BHD": 3, "JOD": 3, "KWD": 3, "OMR": 3, "TND": 3,
}

// ToMinorUnits converts amount to the integer minor units of currency.
// Amounts finer than the currency's minor unit are refused rather than rounded.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	exp, ok := currencyExponents[strings.ToUpper(currency)]
	if !ok {
		exp = 2
	}
	minor := amount.Shift(exp)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more precision than %s allows", amount.String(), currency)
	}
	return minor.IntPart(), nil
}

// NewPaymentGatewayFactory creates the factory for card and wallet payment gateways
func NewPaymentGatewayFactory(opts ...Option) *Factory {
	return &Factory{
		integrationType: integration.IntegrationTypePaymentGateway,
		dataTypes: []integration.DataType{
			integration.DataTypeCustomers,
			integration.DataTypePayments,
		},
		limits: integration.AdapterLimits{
			Workers:       4,
			RatePerSecond: 10,
			Burst:         20,
			CallTimeout:   15 * time.Second,
		},
		opts:  buildOptions(opts),
		build: newPaymentGatewayAdapter,
	}
}

// PaymentGatewayAdapter mirrors customers and settled payments into a payment gateway
type PaymentGatewayAdapter struct {
	config *integration.PaymentGatewayConfig
	client *apiClient
}

func newPaymentGatewayAdapter(cfg *integration.IntegrationConfig, opts *options) (integration.Adapter, error) {
	config, ok := cfg.ConfigData.(*integration.PaymentGatewayConfig)
	if !ok {
		return nil, integration.NewFatalError("config data does not match the adapter", integration.ErrConfigDataTypeMismatch)
	}

	client := newAPIClient(string(integration.IntegrationTypePaymentGateway), config.BaseURL, opts)
	client.decorate = func(req *http.Request, _ []byte) error {
		req.SetBasicAuth(config.MerchantID, config.SecretKey)
		return nil
	}
	return &PaymentGatewayAdapter{config: config, client: client}, nil
}

// System returns the mapping namespace of the adapter
func (a *PaymentGatewayAdapter) System() string {
	return string(integration.IntegrationTypePaymentGateway)
}

// SupportedDataTypes returns the categories the gateway stores
func (a *PaymentGatewayAdapter) SupportedDataTypes() []integration.DataType {
	return []integration.DataType{integration.DataTypeCustomers, integration.DataTypePayments}
}

// Push creates or updates a gateway customer or payment record
func (a *PaymentGatewayAdapter) Push(ctx context.Context, req integration.PushRequest) (integration.ExternalRef, error) {
	var (
		resource string
		payload  any
		err      error
	)
	switch req.Record.DataType {
	case integration.DataTypeCustomers:
		resource = "customers"
		payload, err = paymentCustomerFrom(req.Record)
	case integration.DataTypePayments:
		resource = "payments"
		payload, err = paymentChargeFrom(req.Record, a.config.Currency)
	default:
		return integration.ExternalRef{}, integration.NewContainedError(req.Record.ID,
			fmt.Sprintf("payment gateway does not accept %s", req.Record.DataType), nil)
	}
	if err != nil {
		return integration.ExternalRef{}, err
	}

	var resp paymentResponse
	if req.IsCreate() {
		err = a.client.do(ctx, http.MethodPost, "/v1/"+resource, payload, &resp)
	} else {
		err = a.client.do(ctx, http.MethodPost, "/v1/"+resource+"/"+url.PathEscape(req.ExternalID), payload, &resp)
	}
	if err != nil {
		return integration.ExternalRef{}, rejectRecord(req.Record.ID, err)
	}

	externalID := resp.ID
	if externalID == "" {
		externalID = req.ExternalID
	}
	if externalID == "" {
		return integration.ExternalRef{}, integration.NewContainedError(req.Record.ID, "payment gateway returned no id", nil)
	}
	return integration.ExternalRef{ExternalID: externalID}, nil
}

// TestConnection fetches the merchant account
func (a *PaymentGatewayAdapter) TestConnection(ctx context.Context) (integration.ConnectionResult, error) {
	var merchant merchantResponse
	if err := a.client.do(ctx, http.MethodGet, "/v1/merchants/"+url.PathEscape(a.config.MerchantID), nil, &merchant); err != nil {
		return integration.ConnectionResult{}, err
	}
	if merchant.Status != "" && merchant.Status != "active" {
		return integration.ConnectionResult{Message: fmt.Sprintf("merchant account is %s", merchant.Status)}, nil
	}
	return integration.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("connected to merchant %s", merchant.Name),
		Details: map[string]any{
			"merchant_id": a.config.MerchantID,
			"currency":    a.config.Currency,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Sync routines
// ---------------------------------------------------------------------------

func paymentCustomerFrom(rec integration.LocalRecord) (*paymentCustomer, error) {
	name, err := requireString(rec, "name")
	if err != nil {
		return nil, err
	}
	return &paymentCustomer{
		Name:      name,
		Email:     stringField(rec, "email"),
		Phone:     stringField(rec, "phone"),
		Reference: rec.ID,
	}, nil
}

func paymentChargeFrom(rec integration.LocalRecord, defaultCurrency string) (*paymentCharge, error) {
	amount, err := requireDecimal(rec, "amount")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, integration.NewContainedError(rec.ID, "field amount must be positive", nil)
	}

	currency := strings.ToUpper(stringField(rec, "currency"))
	if currency == "" {
		currency = defaultCurrency
	}
	minor, err := ToMinorUnits(amount, currency)
	if err != nil {
		return nil, integration.NewContainedError(rec.ID, "invalid amount", err)
	}

	return &paymentCharge{
		Amount:      minor,
		Currency:    currency,
		CustomerRef: stringField(rec, "customer_id"),
		Description: firstString(rec, "description", "memo"),
		Reference:   rec.ID,
	}, nil
}

// Ensure PaymentGatewayAdapter implements Adapter
var _ integration.Adapter = (*PaymentGatewayAdapter)(nil)
