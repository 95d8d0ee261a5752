package connector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
)

// Webhook event names
const (
	WebhookEventUpsert = "record.upsert"
	WebhookEventPing   = "ping"
)

// NewWebhookFactory creates the factory for tenant-owned webhooks.
// A webhook accepts every data type.
func NewWebhookFactory(opts ...Option) *Factory {
	return &Factory{
		integrationType: integration.IntegrationTypeCustom,
		dataTypes:       integration.AllDataTypes(),
		limits: integration.AdapterLimits{
			Workers:       2,
			RatePerSecond: 5,
			Burst:         5,
			CallTimeout:   10 * time.Second,
		},
		opts:  buildOptions(opts),
		build: newWebhookAdapter,
	}
}

// WebhookAdapter posts each record as a JSON envelope to one URL
type WebhookAdapter struct {
	config *integration.CustomConfig
	client *apiClient
	now    func() time.Time
}

func newWebhookAdapter(cfg *integration.IntegrationConfig, opts *options) (integration.Adapter, error) {
	config, ok := cfg.ConfigData.(*integration.CustomConfig)
	if !ok {
		return nil, integration.NewFatalError("config data does not match the adapter", integration.ErrConfigDataTypeMismatch)
	}
	if _, err := url.ParseRequestURI(config.WebhookURL); err != nil {
		return nil, integration.NewFatalError("invalid webhook url", err)
	}

	client := newAPIClient(string(integration.IntegrationTypeCustom), config.WebhookURL, opts)
	if config.AuthHeader != "" {
		client.decorate = func(req *http.Request, _ []byte) error {
			req.Header.Set(config.AuthHeader, config.AuthToken)
			return nil
		}
	}
	return &WebhookAdapter{config: config, client: client, now: opts.now}, nil
}

// System returns the mapping namespace of the adapter
func (a *WebhookAdapter) System() string {
	return string(integration.IntegrationTypeCustom)
}

// SupportedDataTypes returns every data type
func (a *WebhookAdapter) SupportedDataTypes() []integration.DataType {
	return integration.AllDataTypes()
}

// Push posts the record. Receivers that return no id are keyed by the local id.
func (a *WebhookAdapter) Push(ctx context.Context, req integration.PushRequest) (integration.ExternalRef, error) {
	envelope := webhookEnvelope{
		Event:      WebhookEventUpsert,
		DataType:   string(req.Record.DataType),
		RecordID:   req.Record.ID,
		ExternalID: req.ExternalID,
		Fields:     req.Record.Fields,
		Settings:   a.config.Settings,
		SentAt:     a.now().UTC().Format(time.RFC3339),
	}

	var resp webhookResponse
	if err := a.client.do(ctx, http.MethodPost, "", envelope, &resp); err != nil {
		return integration.ExternalRef{}, rejectRecord(req.Record.ID, err)
	}

	switch {
	case resp.ExternalID != "":
		return integration.ExternalRef{ExternalID: resp.ExternalID}, nil
	case resp.ID != "":
		return integration.ExternalRef{ExternalID: resp.ID}, nil
	case req.ExternalID != "":
		return integration.ExternalRef{ExternalID: req.ExternalID}, nil
	default:
		return integration.ExternalRef{ExternalID: req.Record.ID}, nil
	}
}

// TestConnection sends a ping event
func (a *WebhookAdapter) TestConnection(ctx context.Context) (integration.ConnectionResult, error) {
	ping := webhookEnvelope{Event: WebhookEventPing, SentAt: a.now().UTC().Format(time.RFC3339)}
	if err := a.client.do(ctx, http.MethodPost, "", ping, nil); err != nil {
		return integration.ConnectionResult{}, err
	}
	return integration.ConnectionResult{
		Success: true,
		Message: "webhook accepted ping",
		Details: map[string]any{"webhook_url": a.config.WebhookURL},
	}, nil
}

// Ensure WebhookAdapter implements Adapter
var _ integration.Adapter = (*WebhookAdapter)(nil)
