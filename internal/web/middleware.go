package web

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests counts requests by route and status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})

	// httpDuration tracks handler latency by route
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindmap_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"route"})
)

const loggerKey = "mindmap.logger"

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// requestLogger attaches a request-scoped logger and records metrics.
func requestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := base.With("request_id", getOrCreateRequestID(c))
		c.Set(loggerKey, logger)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		logger.Debug("request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration", elapsed)
	}
}

func loggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
