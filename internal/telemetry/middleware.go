package telemetry

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the tracing middleware
type Config struct {
	ServiceName string
	Skip        func(*fiber.Ctx) bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServiceName: "where-smoking-api",
		Skip: func(c *fiber.Ctx) bool {
			switch c.Path() {
			case "/healthz", "/metrics":
				return true
			}
			return false
		},
	}
}

// New returns a tracing middleware for Fiber. Span names and metric labels
// use the matched route pattern so ids do not explode cardinality.
func New(config ...Config) fiber.Handler {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
		if cfg.ServiceName == "" {
			cfg.ServiceName = DefaultConfig().ServiceName
		}
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		if HTTPActiveRequests != nil {
			HTTPActiveRequests.Add(c.Context(), 1, metric.WithAttributes(attribute.String("method", method)))
			defer HTTPActiveRequests.Add(c.Context(), -1, metric.WithAttributes(attribute.String("method", method)))
		}

		tr := otel.GetTracerProvider().Tracer(cfg.ServiceName)

		// Extract context from incoming request headers
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := tr.Start(ctx, method+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(method),
				semconv.HTTPURLKey.String(c.OriginalURL()),
				semconv.HTTPTargetKey.String(c.Path()),
				semconv.NetHostNameKey.String(c.Hostname()),
				semconv.HTTPUserAgentKey.String(string(c.Request().Header.UserAgent())),
			),
		)
		defer span.End()

		c.Locals("otel-span", span)
		c.SetUserContext(ctx)

		err := c.Next()

		// 라우팅 이후에야 route 패턴을 알 수 있음
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		span.SetName(method + " " + route)

		status := c.Response().StatusCode()
		span.SetAttributes(
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPStatusCodeKey.Int(status),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}

		attrs := metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(status)),
		)
		if HTTPRequestsTotal != nil {
			HTTPRequestsTotal.Add(c.Context(), 1, attrs)
		}
		if HTTPRequestDuration != nil {
			HTTPRequestDuration.Record(c.Context(), time.Since(start).Seconds(), attrs)
		}

		return err
	}
}

// SpanFromContext gets the current span from fiber context
func SpanFromContext(c *fiber.Ctx) trace.Span {
	span, ok := c.Locals("otel-span").(trace.Span)
	if !ok {
		return trace.SpanFromContext(c.UserContext())
	}
	return span
}
