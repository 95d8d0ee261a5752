package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/erp/syncengine/internal/infrastructure/telemetry"
)

const attrHTTPStatusClass = attribute.Key("http.status_class")

// HTTPMetrics records request count, latency and in-flight requests. It is a
// no-op when the meter provider is nil or disabled.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if mp == nil || !mp.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(mp.Meter("http.server"))
}

// HTTPMetricsWithMeter records HTTP metrics on the given meter. Instrument
// errors degrade to a pass-through handler.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	total, err := telemetry.NewCounter(meter, "http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return passThrough
	}
	latency, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return passThrough
	}
	inFlight, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		inFlight.Add(ctx, 1)
		defer inFlight.Add(ctx, -1)

		c.Next()

		// FullPath keeps :id placeholders so cardinality stays bounded
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
			telemetry.AttrHTTPStatusCode.Int(status),
		}
		if tenantID := GetTenantID(c); tenantID != "" {
			total.Inc(ctx, append(attrs, telemetry.AttrTenantID.String(tenantID))...)
		} else {
			total.Inc(ctx, attrs...)
		}
		latency.RecordDuration(ctx, time.Since(start), attrs[0], attrs[1], attrHTTPStatusClass.String(HTTPStatusGroup(status)))
	}
}

// HTTPStatusGroup buckets a status code into its class
func HTTPStatusGroup(statusCode int) string {
	if statusCode < 200 || statusCode > 599 {
		return "other"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}

func passThrough(c *gin.Context) {
	c.Next()
}
