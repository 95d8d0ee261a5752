package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for sync spans
const TracerName = "erp-syncengine"

// Span attribute keys for sync spans. Metric attributes are in metrics.go.
var (
	SpanIntegrationID   = attribute.Key("integration.id")
	SpanIntegrationType = attribute.Key("integration.type")
	SpanTenantID        = attribute.Key("tenant.id")

	SpanJobID            = attribute.Key("sync.job_id")
	SpanDataType         = attribute.Key("sync.data_type")
	SpanRecordID         = attribute.Key("sync.record_id")
	SpanRecordsProcessed = attribute.Key("sync.records_processed")
	SpanRecordsFailed    = attribute.Key("sync.records_failed")
)

// StartSpan starts an internal span from the global tracer provider. The
// caller ends it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartServiceSpan starts a span named service.method
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, attrs...)
}

// FinishSpan sets the span status from err. It does not end the span.
func FinishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
