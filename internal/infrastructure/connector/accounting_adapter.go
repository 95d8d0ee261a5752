package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/erp/syncengine/internal/domain/integration"
)

// accountingResources maps each supported data type to its REST collection
var accountingResources = map[integration.DataType]string{
	integration.DataTypeCustomers: "contacts",
	integration.DataTypeProducts:  "items",
	integration.DataTypeInvoices:  "invoices",
	integration.DataTypePayments:  "payments",
}

// NewAccountingFactory creates the factory for general-ledger platforms
func NewAccountingFactory(opts ...Option) *Factory {
	return &Factory{
		integrationType: integration.IntegrationTypeAccountingPlatform,
		dataTypes: []integration.DataType{
			integration.DataTypeCustomers,
			integration.DataTypeProducts,
			integration.DataTypeInvoices,
			integration.DataTypePayments,
		},
		limits: integration.AdapterLimits{
			Workers:       4,
			RatePerSecond: 5,
			Burst:         10,
			CallTimeout:   30 * time.Second,
		},
		opts:  buildOptions(opts),
		build: newAccountingAdapter,
	}
}

// AccountingAdapter pushes ledger records through a bearer-token REST API
type AccountingAdapter struct {
	config *integration.AccountingPlatformConfig
	client *apiClient
}

func newAccountingAdapter(cfg *integration.IntegrationConfig, opts *options) (integration.Adapter, error) {
	config, ok := cfg.ConfigData.(*integration.AccountingPlatformConfig)
	if !ok {
		return nil, integration.NewFatalError("config data does not match the adapter", integration.ErrConfigDataTypeMismatch)
	}
	if config.TokenExpired(opts.now()) {
		return nil, integration.NewFatalError("accounting access token expired", integration.ErrCredentialsExpired)
	}

	token := &oauth2.Token{AccessToken: config.AccessToken, TokenType: "Bearer"}
	if config.TokenExpiresAt != nil {
		token.Expiry = *config.TokenExpiresAt
	}
	authed := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   opts.httpClient.Transport,
		},
	}

	client := newAPIClient(string(integration.IntegrationTypeAccountingPlatform), config.BaseURL, opts)
	client.httpClient = authed
	client.decorate = func(req *http.Request, _ []byte) error {
		req.Header.Set("X-Organization-ID", config.OrganizationID)
		return nil
	}
	return &AccountingAdapter{config: config, client: client}, nil
}

// System returns the mapping namespace of the adapter
func (a *AccountingAdapter) System() string {
	return string(integration.IntegrationTypeAccountingPlatform)
}

// SupportedDataTypes returns the ledger categories the adapter can push
func (a *AccountingAdapter) SupportedDataTypes() []integration.DataType {
	return []integration.DataType{
		integration.DataTypeCustomers,
		integration.DataTypeProducts,
		integration.DataTypeInvoices,
		integration.DataTypePayments,
	}
}

// Push creates or replaces one ledger record
func (a *AccountingAdapter) Push(ctx context.Context, req integration.PushRequest) (integration.ExternalRef, error) {
	resource, ok := accountingResources[req.Record.DataType]
	if !ok {
		return integration.ExternalRef{}, integration.NewContainedError(req.Record.ID,
			fmt.Sprintf("accounting platform does not accept %s", req.Record.DataType), nil)
	}

	var (
		payload any
		err     error
	)
	switch req.Record.DataType {
	case integration.DataTypeCustomers:
		payload, err = accountingContactFrom(req.Record)
	case integration.DataTypeProducts:
		payload, err = accountingItemFrom(req.Record)
	case integration.DataTypeInvoices:
		payload, err = accountingInvoiceFrom(req.Record)
	case integration.DataTypePayments:
		payload, err = accountingPaymentFrom(req.Record)
	}
	if err != nil {
		return integration.ExternalRef{}, err
	}

	var resp accountingResponse
	if req.IsCreate() {
		err = a.client.do(ctx, http.MethodPost, "/v1/"+resource, payload, &resp)
	} else {
		err = a.client.do(ctx, http.MethodPut, "/v1/"+resource+"/"+url.PathEscape(req.ExternalID), payload, &resp)
	}
	if err != nil {
		return integration.ExternalRef{}, rejectRecord(req.Record.ID, err)
	}

	externalID := resp.ID
	if externalID == "" {
		externalID = req.ExternalID
	}
	if externalID == "" {
		return integration.ExternalRef{}, integration.NewContainedError(req.Record.ID, "accounting platform returned no id", nil)
	}
	return integration.ExternalRef{ExternalID: externalID}, nil
}

// TestConnection fetches the organization the token belongs to
func (a *AccountingAdapter) TestConnection(ctx context.Context) (integration.ConnectionResult, error) {
	var org accountingOrganization
	if err := a.client.do(ctx, http.MethodGet, "/v1/organisation", nil, &org); err != nil {
		return integration.ConnectionResult{}, err
	}
	if org.ID != "" && org.ID != a.config.OrganizationID {
		return integration.ConnectionResult{
			Message: fmt.Sprintf("token belongs to organization %s, expected %s", org.ID, a.config.OrganizationID),
		}, nil
	}
	return integration.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("connected to %s", org.Name),
		Details: map[string]any{
			"organization_id": a.config.OrganizationID,
			"base_currency":   org.BaseCurrency,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Sync routines
// ---------------------------------------------------------------------------

func accountingContactFrom(rec integration.LocalRecord) (*accountingContact, error) {
	name, err := requireString(rec, "name")
	if err != nil {
		return nil, err
	}
	return &accountingContact{
		Name:      name,
		Email:     stringField(rec, "email"),
		Phone:     stringField(rec, "phone"),
		TaxNumber: stringField(rec, "tax_number"),
		Reference: rec.ID,
	}, nil
}

func accountingItemFrom(rec integration.LocalRecord) (*accountingItem, error) {
	name, err := requireString(rec, "name")
	if err != nil {
		return nil, err
	}
	item := &accountingItem{
		Code:        firstString(rec, "sku", "code"),
		Name:        name,
		Description: stringField(rec, "description"),
		Reference:   rec.ID,
	}
	if item.Code == "" {
		item.Code = rec.ID
	}
	price, ok, err := decimalField(rec, "price")
	if err != nil {
		return nil, err
	}
	if ok {
		if price.IsNegative() {
			return nil, integration.NewContainedError(rec.ID, "field price must not be negative", nil)
		}
		item.UnitPrice = price.StringFixed(2)
	}
	return item, nil
}

func accountingInvoiceFrom(rec integration.LocalRecord) (*accountingInvoice, error) {
	number, err := requireString(rec, "number")
	if err != nil {
		return nil, err
	}
	total, err := requireNonNegative(rec, "total")
	if err != nil {
		return nil, err
	}
	return &accountingInvoice{
		Number:       number,
		ContactRef:   stringField(rec, "customer_id"),
		IssueDate:    stringField(rec, "issue_date"),
		DueDate:      stringField(rec, "due_date"),
		CurrencyCode: stringField(rec, "currency"),
		Total:        total.StringFixed(2),
		Reference:    rec.ID,
	}, nil
}

func accountingPaymentFrom(rec integration.LocalRecord) (*accountingPayment, error) {
	invoiceRef, err := requireString(rec, "invoice_id")
	if err != nil {
		return nil, err
	}
	amount, err := requireDecimal(rec, "amount")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, integration.NewContainedError(rec.ID, "field amount must be positive", nil)
	}
	return &accountingPayment{
		InvoiceRef: invoiceRef,
		Amount:     amount.StringFixed(2),
		PaidAt:     stringField(rec, "paid_at"),
		Method:     stringField(rec, "method"),
		Reference:  rec.ID,
	}, nil
}

// Ensure AccountingAdapter implements Adapter
var _ integration.Adapter = (*AccountingAdapter)(nil)
