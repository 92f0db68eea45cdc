package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// instrumentationName 서비스 코드에서 만드는 span의 tracer 이름
const instrumentationName = "github.com/taehoonhoonn/where-smoking"

// ServiceVersion reported in the OTel resource and root endpoint
const ServiceVersion = "1.0.0"

var tracer trace.Tracer

// InitTracer initializes OpenTelemetry tracer with OTLP HTTP exporter
func InitTracer(ctx context.Context, serviceName, endpoint string, log *zap.SugaredLogger) (func(context.Context) error, error) {
	if endpoint == "" {
		log.Info("SIGNOZ_ENDPOINT not set, tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	// Create OTLP HTTP exporter
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Create resource with service info
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(ServiceVersion),
		),
		resource.WithHost(),
		resource.WithOS(),
	)
	if err != nil {
		return nil, err
	}

	// Create tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	// Set global tracer provider
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Create tracer
	tracer = tp.Tracer(serviceName)

	log.Infow("OpenTelemetry tracing initialized", "endpoint", endpoint)

	return tp.Shutdown, nil
}

// Tracer returns the configured tracer, or the global (no-op until
// InitTracer succeeds) one.
func Tracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return tracer
}

// StartSpan starts a new span with the given name. The returned span is
// never nil.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
