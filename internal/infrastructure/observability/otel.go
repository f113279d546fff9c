package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Noah-Banjo/lr-schoolbot"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount         metric.Int64Counter
	RequestDuration      metric.Float64Histogram
	StorageOpDuration    metric.Float64Histogram
	StorageErrorCount    metric.Int64Counter
	CacheHitCount        metric.Int64Counter
	CacheMissCount       metric.Int64Counter
	InteractionCount     metric.Int64Counter
	ChatRequestCount     metric.Int64Counter
	ChatRequestDuration  metric.Float64Histogram
	ChatRequestFailCount metric.Int64Counter
}

// Setup installs OTLP trace and metric providers plus Go runtime metrics.
// The returned function flushes and shuts both providers down.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
	}
	return shutdown, nil
}

// InitMetrics registers instruments on the global meter provider. Without
// Setup they are no-ops.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	if m.RequestCount, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.StorageOpDuration, err = meter.Float64Histogram("analytics.storage.duration",
		metric.WithDescription("Analytics store operation duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.StorageErrorCount, err = meter.Int64Counter("analytics.storage.errors",
		metric.WithDescription("Failed analytics store operations")); err != nil {
		return nil, err
	}
	if m.CacheHitCount, err = meter.Int64Counter("cache.hit.count",
		metric.WithDescription("Number of cache hits")); err != nil {
		return nil, err
	}
	if m.CacheMissCount, err = meter.Int64Counter("cache.miss.count",
		metric.WithDescription("Number of cache misses")); err != nil {
		return nil, err
	}
	if m.InteractionCount, err = meter.Int64Counter("schoolbot.interactions",
		metric.WithDescription("Recorded chat interactions by query type")); err != nil {
		return nil, err
	}
	if m.ChatRequestCount, err = meter.Int64Counter("openai.requests.total",
		metric.WithDescription("Chat completion requests")); err != nil {
		return nil, err
	}
	if m.ChatRequestDuration, err = meter.Float64Histogram("openai.request.duration",
		metric.WithDescription("Chat completion latency in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.ChatRequestFailCount, err = meter.Int64Counter("openai.errors.total",
		metric.WithDescription("Failed chat completion requests")); err != nil {
		return nil, err
	}
	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	)
	metrics.RequestCount.Add(ctx, 1, attrs)
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordStorageMetric records one analytics store operation.
func RecordStorageMetric(ctx context.Context, metrics *Metrics, operation, table string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)
	metrics.StorageOpDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		metrics.StorageErrorCount.Add(ctx, 1, attrs)
	}
}

// RecordCacheResult counts a cache lookup as a hit or a miss.
func RecordCacheResult(ctx context.Context, metrics *Metrics, key string, hit bool) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache.key", key))
	if hit {
		metrics.CacheHitCount.Add(ctx, 1, attrs)
		return
	}
	metrics.CacheMissCount.Add(ctx, 1, attrs)
}

// RecordInteraction counts a persisted interaction.
func RecordInteraction(ctx context.Context, metrics *Metrics, queryType string) {
	if metrics == nil {
		return
	}
	metrics.InteractionCount.Add(ctx, 1, metric.WithAttributes(attribute.String("query_type", queryType)))
}

// RecordChatRequest records one chat completion call.
func RecordChatRequest(ctx context.Context, metrics *Metrics, model string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("model", model))
	metrics.ChatRequestCount.Add(ctx, 1, attrs)
	metrics.ChatRequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		metrics.ChatRequestFailCount.Add(ctx, 1, attrs)
	}
}
