package connector

// ---------------------------------------------------------------------------
// Accounting platform wire types
// ---------------------------------------------------------------------------

type accountingContact struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxNumber string `json:"tax_number,omitempty"`
	Reference string `json:"reference"`
}

type accountingItem struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitPrice   string `json:"unit_price,omitempty"`
	Reference   string `json:"reference"`
}

type accountingInvoice struct {
	Number       string `json:"number"`
	ContactRef   string `json:"contact_reference,omitempty"`
	IssueDate    string `json:"issue_date,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
	CurrencyCode string `json:"currency_code,omitempty"`
	Total        string `json:"total"`
	Reference    string `json:"reference"`
}

type accountingPayment struct {
	InvoiceRef string `json:"invoice_reference"`
	Amount     string `json:"amount"`
	PaidAt     string `json:"paid_at,omitempty"`
	Method     string `json:"method,omitempty"`
	Reference  string `json:"reference"`
}

type accountingResponse struct {
	ID string `json:"id"`
}

type accountingOrganization struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

// ---------------------------------------------------------------------------
// Tax gateway wire types
// ---------------------------------------------------------------------------

// taxDocument is the e-invoicing envelope; inventory reports use the stock
// fields, invoices use the amount fields.
type taxDocument struct {
	TaxpayerID        string `json:"taxpayer_id"`
	DocumentType      string `json:"document_type"`
	Reference         string `json:"reference"`
	Number            string `json:"number,omitempty"`
	CounterpartyTaxID string `json:"counterparty_tax_id,omitempty"`
	IssuedAt          string `json:"issued_at,omitempty"`
	NetAmount         string `json:"net_amount,omitempty"`
	TaxAmount         string `json:"tax_amount,omitempty"`
	GrossAmount       string `json:"gross_amount,omitempty"`
	SKU               string `json:"sku,omitempty"`
	Quantity          string `json:"quantity,omitempty"`
	UnitCost          string `json:"unit_cost,omitempty"`
}

type taxDocumentResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

type taxpayerResponse struct {
	TaxpayerID string `json:"taxpayer_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// ---------------------------------------------------------------------------
// Payment gateway wire types
// ---------------------------------------------------------------------------

type paymentCustomer struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Reference string `json:"reference"`
}

type paymentCharge struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	CustomerRef string `json:"customer_reference,omitempty"`
	Description string `json:"description,omitempty"`
	Reference   string `json:"reference"`
}

type paymentResponse struct {
	ID string `json:"id"`
}

type merchantResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ---------------------------------------------------------------------------
// Webhook wire types
// ---------------------------------------------------------------------------

type webhookEnvelope struct {
	Event      string            `json:"event"`
	DataType   string            `json:"data_type,omitempty"`
	RecordID   string            `json:"record_id,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Fields     map[string]any    `json:"fields,omitempty"`
	Settings   map[string]string `json:"settings,omitempty"`
	SentAt     string            `json:"sent_at"`
}

type webhookResponse struct {
	ExternalID string `json:"external_id"`
	ID         string `json:"id"`
}
