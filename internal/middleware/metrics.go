package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelroom_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_auth_attempts_total",
			Help: "Register and login attempts by outcome",
		},
		[]string{"event", "success"},
	)
	uploadedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_uploaded_bytes_total",
			Help: "Bytes of video accepted, by blob backend",
		},
		[]string{"backend"},
	)
	liveViewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelroom_live_comment_viewers",
			Help: "Open live comment websocket connections",
		},
	)
)

// Metrics records request duration. The route label is the registered
// pattern, not the raw path, so ids do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// RecordAuthAttempt counts a register or login attempt.
func RecordAuthAttempt(event string, success bool) {
	authAttempts.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}

// RecordUpload counts accepted upload bytes.
func RecordUpload(backend string, size int64) {
	uploadedBytes.WithLabelValues(backend).Add(float64(size))
}

// LiveViewerJoined and LiveViewerLeft track open websocket streams.
func LiveViewerJoined() { liveViewers.Inc() }
func LiveViewerLeft()   { liveViewers.Dec() }
