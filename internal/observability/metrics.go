package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"record_type", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"record_type", "method", "path", "status"},
	)
	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recwire",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Record store operations by outcome.",
		},
		[]string{"driver", "op", "success"},
	)
	storeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recwire",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Record store operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"driver", "op"},
	)
	codecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recwire",
			Subsystem: "codec",
			Name:      "bytes_total",
			Help:      "Encoded record bytes by type, scheme and direction.",
		},
		[]string{"type", "scheme", "direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, storeOps, storeDuration, codecBytes)
	})
}

func RecordHTTPRequest(recordType, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(recordType, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(recordType, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordStoreOp(driver, op string, duration time.Duration, success bool) {
	RegisterMetrics()
	storeOps.WithLabelValues(driver, op, strconv.FormatBool(success)).Inc()
	storeDuration.WithLabelValues(driver, op).Observe(duration.Seconds())
}

// RecordCodecBytes counts n encoded bytes; direction is "encode" or "decode".
func RecordCodecBytes(typeName, scheme, direction string, n int) {
	RegisterMetrics()
	codecBytes.WithLabelValues(typeName, scheme, direction).Add(float64(n))
}
