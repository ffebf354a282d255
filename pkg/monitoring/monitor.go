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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// AttemptsEvaluated 按是否通过统计评分次数
	AttemptsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_attempts_evaluated_total",
			Help: "Scenario runs graded, by approval",
		},
		[]string{"approved"},
	)

	// AttemptsRetained 按保留结果统计（inserted / replaced / discarded / error）
	AttemptsRetained = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_attempts_retained_total",
			Help: "Outcome of the best-attempt retention step",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AttemptsEvaluated)
		prometheus.MustRegister(AttemptsRetained)
	})
}

func ObserveEvaluation(approved bool) {
	AttemptsEvaluated.WithLabelValues(strconv.FormatBool(approved)).Inc()
}

func ObserveRetention(outcome string) {
	AttemptsRetained.WithLabelValues(outcome).Inc()
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
