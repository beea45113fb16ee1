package monitoring

import (
	"strconv"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ExerciseEventsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_exercise_events_total",
			Help: "Total number of exercise completion events processed",
		},
	)

	AchievementsUnlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_achievements_unlocked_total",
			Help: "Total number of achievements unlocked",
		},
	)

	OutOfOrderEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_out_of_order_events_total",
			Help: "Total number of rejected out-of-order activity events",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ExerciseEventsProcessed)
	prometheus.MustRegister(AchievementsUnlocked)
	prometheus.MustRegister(OutOfOrderEvents)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
