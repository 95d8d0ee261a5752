package connector

import (
	"net/http"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type options struct {
	httpClient *http.Client
	retry      RetryPolicy
	now        func() time.Time
}

// Option configures the adapters built by a factory
type Option func(*options)

// WithHTTPClient sets the HTTP client shared by the adapters.
// Per-call deadlines come from the context, so the client needs no timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		o.retry = p
	}
}

// WithClock overrides time.Now, used for token expiry and request signing
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		httpClient: &http.Client{},
		retry:      DefaultRetryPolicy(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

// Factory builds the adapter of one integration type
type Factory struct {
	integrationType integration.IntegrationType
	dataTypes       []integration.DataType
	limits          integration.AdapterLimits
	opts            *options
	build           func(cfg *integration.IntegrationConfig, opts *options) (integration.Adapter, error)
}

// Type returns the integration type served by the factory
func (f *Factory) Type() integration.IntegrationType {
	return f.integrationType
}

// SupportedDataTypes returns the data types the adapters can push
func (f *Factory) SupportedDataTypes() []integration.DataType {
	return append([]integration.DataType(nil), f.dataTypes...)
}

// Limits returns the rate ceilings of the external system
func (f *Factory) Limits() integration.AdapterLimits {
	return f.limits
}

// New builds an adapter for cfg
func (f *Factory) New(cfg *integration.IntegrationConfig) (integration.Adapter, error) {
	if cfg == nil || cfg.ConfigData == nil {
		return nil, integration.NewFatalError("integration has no config data", integration.ErrConfigDataRequired)
	}
	if cfg.ConfigData.IntegrationType() != f.integrationType {
		return nil, integration.NewFatalError("config data does not match the adapter", integration.ErrConfigDataTypeMismatch)
	}
	return f.build(cfg, f.opts)
}

// NewRegistry returns a registry holding every built-in adapter
func NewRegistry(opts ...Option) *integration.AdapterRegistry {
	return integration.NewAdapterRegistry(
		NewAccountingFactory(opts...),
		NewTaxGatewayFactory(opts...),
		NewPaymentGatewayFactory(opts...),
		NewWebhookFactory(opts...),
	)
}

// Ensure Factory implements AdapterFactory
var _ integration.AdapterFactory = (*Factory)(nil)
