package connector

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
)

// Tax gateway request headers
const (
	TaxHeaderAPIKey     = "X-Api-Key"
	TaxHeaderTaxpayer   = "X-Taxpayer-ID"
	TaxHeaderTimestamp  = "X-Timestamp"
	TaxHeaderSignature  = "X-Signature"
	taxDocumentsPathFmt = "/v1/documents/%s"
)

// taxDocumentKinds maps each supported data type to its document collection
var taxDocumentKinds = map[integration.DataType]string{
	integration.DataTypeSales:     "sales-invoices",
	integration.DataTypePurchases: "purchase-invoices",
	integration.DataTypeInventory: "inventory-reports",
}

// NewTaxGatewayFactory creates the factory for e-invoicing tax gateways.
// Tax authorities throttle hard, so the limits are the lowest of all adapters.
func NewTaxGatewayFactory(opts ...Option) *Factory {
	return &Factory{
		integrationType: integration.IntegrationTypeTaxGateway,
		dataTypes: []integration.DataType{
			integration.DataTypeSales,
			integration.DataTypePurchases,
			integration.DataTypeInventory,
		},
		limits: integration.AdapterLimits{
			Workers:       2,
			RatePerSecond: 2,
			Burst:         2,
			CallTimeout:   20 * time.Second,
		},
		opts:  buildOptions(opts),
		build: newTaxGatewayAdapter,
	}
}

// SignTaxRequest computes the hex HMAC-SHA256 of
// method, path, timestamp and body joined by newlines.
func SignTaxRequest(secret, method, path, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + "\n" + path + "\n" + timestamp + "\n"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// TaxGatewayAdapter files sales, purchase and inventory documents with a tax authority
type TaxGatewayAdapter struct {
	config *integration.TaxGatewayConfig
	client *apiClient
}

func newTaxGatewayAdapter(cfg *integration.IntegrationConfig, opts *options) (integration.Adapter, error) {
	config, ok := cfg.ConfigData.(*integration.TaxGatewayConfig)
	if !ok {
		return nil, integration.NewFatalError("config data does not match the adapter", integration.ErrConfigDataTypeMismatch)
	}

	client := newAPIClient(string(integration.IntegrationTypeTaxGateway), config.Endpoint, opts)
	client.decorate = func(req *http.Request, body []byte) error {
		ts := strconv.FormatInt(opts.now().Unix(), 10)
		req.Header.Set(TaxHeaderAPIKey, config.APIKey)
		req.Header.Set(TaxHeaderTaxpayer, config.TaxpayerID)
		req.Header.Set(TaxHeaderTimestamp, ts)
		req.Header.Set(TaxHeaderSignature, SignTaxRequest(config.SigningSecret, req.Method, req.URL.EscapedPath(), ts, body))
		return nil
	}
	return &TaxGatewayAdapter{config: config, client: client}, nil
}

// System returns the mapping namespace of the adapter
func (a *TaxGatewayAdapter) System() string {
	return string(integration.IntegrationTypeTaxGateway)
}

// SupportedDataTypes returns the document categories the gateway accepts
func (a *TaxGatewayAdapter) SupportedDataTypes() []integration.DataType {
	return []integration.DataType{
		integration.DataTypeSales,
		integration.DataTypePurchases,
		integration.DataTypeInventory,
	}
}

// Push files a new document or amends an existing one
func (a *TaxGatewayAdapter) Push(ctx context.Context, req integration.PushRequest) (integration.ExternalRef, error) {
	kind, ok := taxDocumentKinds[req.Record.DataType]
	if !ok {
		return integration.ExternalRef{}, integration.NewContainedError(req.Record.ID,
			fmt.Sprintf("tax gateway does not accept %s", req.Record.DataType), nil)
	}

	var (
		doc *taxDocument
		err error
	)
	switch req.Record.DataType {
	case integration.DataTypeSales:
		doc, err = taxInvoiceFrom(req.Record, "buyer_tax_id", false)
	case integration.DataTypePurchases:
		doc, err = taxInvoiceFrom(req.Record, "seller_tax_id", true)
	case integration.DataTypeInventory:
		doc, err = taxInventoryFrom(req.Record)
	}
	if err != nil {
		return integration.ExternalRef{}, err
	}
	doc.TaxpayerID = a.config.TaxpayerID
	doc.DocumentType = kind

	path := fmt.Sprintf(taxDocumentsPathFmt, kind)
	method := http.MethodPost
	if !req.IsCreate() {
		path += "/" + url.PathEscape(req.ExternalID)
		method = http.MethodPut
	}

	var resp taxDocumentResponse
	if err := a.client.do(ctx, method, path, doc, &resp); err != nil {
		return integration.ExternalRef{}, rejectRecord(req.Record.ID, err)
	}
	if resp.Status == "rejected" {
		return integration.ExternalRef{}, integration.NewContainedError(req.Record.ID, "document rejected by tax authority", nil)
	}

	externalID := resp.DocumentID
	if externalID == "" {
		externalID = req.ExternalID
	}
	if externalID == "" {
		return integration.ExternalRef{}, integration.NewContainedError(req.Record.ID, "tax gateway returned no document id", nil)
	}
	return integration.ExternalRef{ExternalID: externalID}, nil
}

// TestConnection looks up the configured taxpayer
func (a *TaxGatewayAdapter) TestConnection(ctx context.Context) (integration.ConnectionResult, error) {
	var taxpayer taxpayerResponse
	path := "/v1/taxpayers/" + url.PathEscape(a.config.TaxpayerID)
	if err := a.client.do(ctx, http.MethodGet, path, nil, &taxpayer); err != nil {
		return integration.ConnectionResult{}, err
	}
	if taxpayer.Status != "" && taxpayer.Status != "active" {
		return integration.ConnectionResult{
			Message: fmt.Sprintf("taxpayer %s is %s", a.config.TaxpayerID, taxpayer.Status),
		}, nil
	}
	return integration.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("connected to %s gateway as %s", a.config.Environment, taxpayer.Name),
		Details: map[string]any{
			"taxpayer_id": a.config.TaxpayerID,
			"environment": a.config.Environment,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Sync routines
// ---------------------------------------------------------------------------

// taxInvoiceFrom builds a sales or purchase invoice document. Purchases must
// name the seller; sales to consumers may omit the buyer.
func taxInvoiceFrom(rec integration.LocalRecord, counterpartyKey string, counterpartyRequired bool) (*taxDocument, error) {
	number, err := requireString(rec, "invoice_number")
	if err != nil {
		return nil, err
	}
	counterparty := stringField(rec, counterpartyKey)
	if counterpartyRequired && counterparty == "" {
		return nil, integration.NewContainedError(rec.ID, "missing required field "+counterpartyKey, nil)
	}
	netAmount, err := requireNonNegative(rec, "amount")
	if err != nil {
		return nil, err
	}
	tax, err := requireNonNegative(rec, "tax_amount")
	if err != nil {
		return nil, err
	}

	return &taxDocument{
		Reference:         rec.ID,
		Number:            number,
		CounterpartyTaxID: counterparty,
		IssuedAt:          stringField(rec, "issued_at"),
		NetAmount:         netAmount.StringFixed(2),
		TaxAmount:         tax.StringFixed(2),
		GrossAmount:       netAmount.Add(tax).StringFixed(2),
	}, nil
}

func taxInventoryFrom(rec integration.LocalRecord) (*taxDocument, error) {
	sku, err := requireString(rec, "sku")
	if err != nil {
		return nil, err
	}
	qty, err := requireNonNegative(rec, "quantity")
	if err != nil {
		return nil, err
	}
	doc := &taxDocument{
		Reference: rec.ID,
		SKU:       sku,
		Quantity:  qty.String(),
	}
	cost, ok, err := decimalField(rec, "unit_cost")
	if err != nil {
		return nil, err
	}
	if ok {
		doc.UnitCost = cost.StringFixed(2)
	}
	return doc, nil
}

// Ensure TaxGatewayAdapter implements Adapter
var _ integration.Adapter = (*TaxGatewayAdapter)(nil)
