// Package metrics exposes Prometheus counters for the HTTP surface and the
// session flow.
package metrics

import (
	"strconv"
	"time"

	"github.com/alkime/speakimage/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "speakimage"

// HTTP metrics (incremented by middleware).
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "path_pattern", "status_code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 9), // 5ms → ~5.5min
	}, []string{"method", "path_pattern"})
)

// Session flow metrics (incremented by SessionNotifier and the registry).
var (
	TranscriptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcriptions_total",
		Help:      "Transcription attempts by outcome.",
	}, []string{"outcome"})

	ImageGenerationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_generations_total",
		Help:      "Image generation attempts by outcome.",
	}, []string{"outcome"})

	ResetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resets_total",
		Help:      "Total start-over actions.",
	})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held in memory.",
	})
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TranscriptionsTotal,
		ImageGenerationsTotal,
		ResetsTotal,
		ActiveSessions,
	)
}

// Instrument returns gin middleware that records HTTP request metrics.
// It labels by gin's route pattern to avoid cardinality explosion.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		pattern := c.FullPath()
		if pattern == "" {
			pattern = "unmatched"
		}

		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, pattern).Observe(time.Since(start).Seconds())
	}
}

// SessionNotifier counts controller outcomes. It implements session.Notifier.
type SessionNotifier struct{}

func (SessionNotifier) TranscriptReady(string) {
	TranscriptionsTotal.WithLabelValues(outcomeSuccess).Inc()
}

func (SessionNotifier) ImageReady(string) {
	ImageGenerationsTotal.WithLabelValues(outcomeSuccess).Inc()
}

func (SessionNotifier) Failed(kind session.FailureKind, _ error) {
	switch kind {
	case session.FailureTranscription:
		TranscriptionsTotal.WithLabelValues(outcomeFailure).Inc()
	case session.FailureGeneration:
		ImageGenerationsTotal.WithLabelValues(outcomeFailure).Inc()
	}
}

func (SessionNotifier) Reset() {
	ResetsTotal.Inc()
}
