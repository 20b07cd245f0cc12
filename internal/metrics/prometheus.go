package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vedascore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// ComparisonCount counts pairwise similarity computations
	ComparisonCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vedascore_comparisons_total",
			Help: "Total number of pairwise similarity computations",
		},
	)

	// ComparisonDuration measures how long one comparison takes
	ComparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vedascore_comparison_duration_seconds",
			Help:    "Pairwise similarity duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	// ReportCount counts stored plagiarism reports by risk level
	ReportCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vedascore_reports_total",
			Help: "Total number of stored plagiarism reports",
		},
		[]string{"risk"},
	)

	registerOnce sync.Once
)

// InitPrometheus registers the collectors with the default registry. Safe to
// call more than once.
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCount)
		prometheus.MustRegister(ComparisonCount)
		prometheus.MustRegister(ComparisonDuration)
		prometheus.MustRegister(ReportCount)
	})
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveComparison(d time.Duration) {
	ComparisonCount.Inc()
	ComparisonDuration.Observe(d.Seconds())
}

func RecordReport(risk string) {
	ReportCount.WithLabelValues(risk).Inc()
}

// GinMiddleware counts requests by matched route so path parameters do not
// blow up label cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestCount.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
