package middleware

import (
	"errors"
	"net/netip"
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 메트릭 라벨용 라우트 그룹
const (
	GroupPublic = "public"
	GroupAdmin  = "admin"
	GroupPlaces = "places"
	GroupHealth = "health"
	GroupOther  = "other"
)

const routeGroupKey = "route_group"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "where_smoking_http_requests_total",
			Help: "Total number of HTTP requests by route group",
		},
		[]string{"group", "method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "where_smoking_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by route group",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"group", "route"},
	)

	// 목록 응답은 활성 레코드 수에 비례
	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "where_smoking_http_response_size_bytes",
			Help:    "HTTP response body size in bytes by route group",
			Buckets: prometheus.ExponentialBuckets(256, 4, 7),
		},
		[]string{"group"},
	)

	// 관리자 인증 실패 (403)
	adminDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "where_smoking_admin_denied_total",
			Help: "Total number of admin requests rejected for a missing or wrong token",
		},
	)
)

// RouteGroup labels every request under the router with group.
func RouteGroup(group string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(routeGroupKey, group)
		return c.Next()
	}
}

func routeGroupOf(c *fiber.Ctx) string {
	if g, ok := c.Locals(routeGroupKey).(string); ok && g != "" {
		return g
	}
	return GroupOther
}

// PrometheusMiddleware records request count, latency and response size per
// route group. The group is read after the handler chain so AdminAuth can
// move a request into the admin group.
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/metrics" || path == "/healthz" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		// 매칭되지 않은 경로는 하나의 라벨로 묶음
		if route == "" || (route == "/" && path != "/") {
			route = "unmatched"
		}
		group := routeGroupOf(c)

		// 에러 응답은 ErrorHandler가 나중에 쓰므로 에러에서 상태 코드를 구함
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		httpRequestsTotal.WithLabelValues(group, c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(group, route).Observe(time.Since(start).Seconds())
		httpResponseSize.WithLabelValues(group).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// PrometheusHandler /metrics scrape 엔드포인트
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// 사설망/루프백 대역
var internalPrefixes = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
}

// InternalOnly restricts a route to loopback and private addresses. X-Real-IP
// from the ingress wins over the socket address.
func InternalOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.IP()
		if realIP := c.Get("X-Real-IP"); realIP != "" {
			raw = realIP
		}

		addr, err := netip.ParseAddr(raw)
		if err == nil {
			addr = addr.Unmap()
			for _, p := range internalPrefixes {
				if p.Contains(addr) {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Forbidden",
			"message": "내부망에서만 접근할 수 있습니다.",
		})
	}
}
