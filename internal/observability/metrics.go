package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes.
const (
	OutcomeResolved   = "resolved"
	OutcomeNull       = "null"
	OutcomeAbsent     = "absent"
	OutcomeUnexpected = "unexpected_kind"
	OutcomeMalformed  = "malformed"
)

var (
	registerOnce sync.Once

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uniondec",
			Subsystem: "union",
			Name:      "resolve_total",
			Help:      "Union field resolutions by union, wire kind and outcome.",
		},
		[]string{"union", "kind", "outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uniondec",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "uniondec",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(resolutions, httpRequests, httpDuration)
	})
}

func RecordResolution(union, kind, outcome string) {
	RegisterMetrics()
	resolutions.WithLabelValues(union, kind, outcome).Inc()
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}
