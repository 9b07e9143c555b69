package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records handler latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ActiveWebSockets is the gauge of open websocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// LikeToggles counts like toggles by target (post, comment) and resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_like_toggles_total",
		Help: "Total number of like toggles by target and resulting state",
	}, []string{"target", "liked"})

	// FeedPages counts served timeline pages by kind and whether a cursor resolved.
	FeedPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_feed_pages_total",
		Help: "Total number of feed pages served",
	}, []string{"kind", "cursor"})

	// ThreadNodes records how many comments a built thread contained.
	ThreadNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "murmur_thread_nodes",
		Help:    "Number of comment nodes returned per thread build",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the fiberprometheus middleware for the service. The
// collector registers on the default registry, so it is built once per process.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New(serviceName)
	})
	return promMW
}

// MetricsMiddleware records request counts and latency, and delegates to the
// fiberprometheus collector when one is configured.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	var promHandler fiber.Handler
	if prom != nil {
		promHandler = prom.Middleware
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		var err error
		if promHandler != nil {
			err = promHandler(c)
		} else {
			err = c.Next()
		}

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := strconv.Itoa(c.Response().StatusCode())
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordLikeToggle counts one like toggle.
func RecordLikeToggle(target string, liked bool) {
	LikeToggles.WithLabelValues(target, strconv.FormatBool(liked)).Inc()
}

// RecordFeedPage counts one served timeline page.
func RecordFeedPage(kind string, cursorResolved bool) {
	cursor := "none"
	if cursorResolved {
		cursor = "resolved"
	}
	FeedPages.WithLabelValues(kind, cursor).Inc()
}
