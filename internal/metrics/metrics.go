// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "worship"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})

	authzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "authz",
		Name:      "decisions_total",
		Help:      "Role guard decisions by resource and result.",
	}, []string{"resource", "result"})

	rotationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rotation",
		Name:      "recalculations_total",
		Help:      "Leader rotation recalculations.",
	})

	rotationChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rotation",
		Name:      "leader_changes_total",
		Help:      "Worship sets whose leader was changed by a recalculation.",
	})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Notification delivery attempts by type and status.",
	}, []string{"type", "status"})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Background job runs by job and result.",
	}, []string{"job", "result"})

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chord_sheets",
		Name:      "upload_bytes",
		Help:      "Size of accepted chord sheet uploads.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 6),
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one finished request. route should be the mux pattern,
// never the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuthz counts a role guard decision.
func RecordAuthz(resource string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	authzDecisions.WithLabelValues(resource, result).Inc()
}

// RecordRecalculation counts a rotation run and the sets it changed.
func RecordRecalculation(changes int) {
	rotationRuns.Inc()
	rotationChanges.Add(float64(changes))
}

// RecordNotification counts a delivery attempt.
func RecordNotification(typ, status string) {
	notifications.WithLabelValues(typ, status).Inc()
}

// RecordJobRun counts a background job run.
func RecordJobRun(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobRuns.WithLabelValues(job, result).Inc()
}

// RecordUpload observes an accepted upload size.
func RecordUpload(size int64) {
	uploadBytes.Observe(float64(size))
}
