package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"philcali.me/compliance/internal/exceptions"
)

// Recorder observes one storage operation: how long it took, how many
// attempts the retry loop consumed, and how it ended.
type Recorder interface {
	Observe(operation string, attempts int, duration time.Duration, err error)
}

type Noop struct{}

func (n *Noop) Observe(operation string, attempts int, duration time.Duration, err error) {}

type PrometheusRecorder struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewPrometheusRecorder(registerer prometheus.Registerer) *PrometheusRecorder {
	recorder := &PrometheusRecorder{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "compliance",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Duration of storage operations, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "storage",
			Name:      "operation_attempts_total",
			Help:      "Attempts consumed by storage operations.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "storage",
			Name:      "operation_failures_total",
			Help:      "Storage operations that failed after classification.",
		}, []string{"operation", "code"}),
	}
	registerer.MustRegister(recorder.duration, recorder.attempts, recorder.failures)
	return recorder
}

func (pr *PrometheusRecorder) Observe(operation string, attempts int, duration time.Duration, err error) {
	pr.duration.WithLabelValues(operation).Observe(duration.Seconds())
	pr.attempts.WithLabelValues(operation).Add(float64(attempts))
	if err != nil {
		pr.failures.WithLabelValues(operation, exceptions.Classify(err, operation).Code).Inc()
	}
}
