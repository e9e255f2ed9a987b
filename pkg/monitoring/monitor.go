package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 业务指标
	ReadinessEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewind_readiness_events_total",
			Help: "Readiness events recorded, by kind",
		},
		[]string{"kind"},
	)

	AnalysisJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewind_analysis_jobs_total",
			Help: "Recording analysis jobs, by result",
		},
		[]string{"result"},
	)

	Payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewind_payments_total",
			Help: "Payment state transitions, by resulting status",
		},
		[]string{"status"},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewind_webhook_events_total",
			Help: "Payment webhook deliveries, by event and result",
		},
		[]string{"event", "result"},
	)

	SubscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rewind_subscriptions_expired_total",
			Help: "Subscriptions moved to EXPIRED by the reaper",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ReadinessEvents,
			AnalysisJobs,
			Payments,
			WebhookEvents,
			SubscriptionsExpired,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
