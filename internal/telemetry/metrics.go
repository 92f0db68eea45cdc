package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.uber.org/zap"
)

var meter metric.Meter

// HTTP metrics
var (
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
)

// Domain metrics
var (
	NearbyResults     metric.Int64Histogram
	StatusTransitions metric.Int64Counter
)

// InitMeter initializes OpenTelemetry meter with OTLP HTTP exporter
func InitMeter(ctx context.Context, serviceName, endpoint string, log *zap.SugaredLogger) (func(context.Context) error, error) {
	if endpoint == "" {
		log.Info("SIGNOZ_ENDPOINT not set, metrics disabled")
		return func(context.Context) error { return nil }, nil
	}

	// Create OTLP HTTP metric exporter
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithInsecure(),
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

	// Create meter provider with periodic reader
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(15*time.Second),
			),
		),
	)

	// Set global meter provider
	otel.SetMeterProvider(mp)

	// Create meter
	meter = mp.Meter(serviceName)

	if err := initInstruments(); err != nil {
		return nil, err
	}

	log.Infow("OpenTelemetry metrics initialized", "endpoint", endpoint)

	return mp.Shutdown, nil
}

// initInstruments creates HTTP and domain instruments
func initInstruments() error {
	var err error

	HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return err
	}

	HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	NearbyResults, err = meter.Int64Histogram(
		"smoking_area_nearby_results",
		metric.WithDescription("Number of smoking areas returned by nearby search"),
		metric.WithUnit("{area}"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 20, 50, 100),
	)
	if err != nil {
		return err
	}

	StatusTransitions, err = meter.Int64Counter(
		"smoking_area_status_transitions",
		metric.WithDescription("Successful smoking area status transitions"),
		metric.WithUnit("{transition}"),
	)
	return err
}

// RecordNearbyResults records the size of a nearby search result.
func RecordNearbyResults(ctx context.Context, n int, radius int) {
	if NearbyResults == nil {
		return
	}
	NearbyResults.Record(ctx, int64(n), metric.WithAttributes(attribute.Int("radius_meters", radius)))
}

// RecordStatusTransition counts a status change of a smoking area.
func RecordStatusTransition(ctx context.Context, from, to string) {
	if StatusTransitions == nil {
		return
	}
	StatusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// Meter returns the global meter
func Meter() metric.Meter {
	return meter
}
