// Package metrics records prometheus metrics of requests to and from the platform.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	clientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digitalhub",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total requests sent to the core.",
		},
		[]string{"method", "status"},
	)
	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digitalhub",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests sent to the core, in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
	serverRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digitalhub",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total requests served.",
		},
		[]string{"method", "path", "status"},
	)
	serverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digitalhub",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests served, in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Register registers collectors to the default registry. It can be called many times.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(clientRequests, clientDuration, serverRequests, serverDuration)
	})
}

// StatusNone labels requests without response, like connection failures.
const StatusNone = 0

// RecordClientRequest records a request sent by the remote client.
func RecordClientRequest(method string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	clientRequests.WithLabelValues(method, statusLabel).Inc()
	clientDuration.WithLabelValues(method, statusLabel).Observe(duration.Seconds())
}

// RecordServerRequest records a request served. path should be a route pattern, not the actual path.
func RecordServerRequest(method string, path string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	serverRequests.WithLabelValues(method, path, statusLabel).Inc()
	serverDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// ClientRequests is the counter of RecordClientRequest.
func ClientRequests(method string, status int) prometheus.Counter {
	return clientRequests.WithLabelValues(method, strconv.Itoa(status))
}

// ServerRequests is the counter of RecordServerRequest.
func ServerRequests(method string, path string, status int) prometheus.Counter {
	return serverRequests.WithLabelValues(method, path, strconv.Itoa(status))
}
