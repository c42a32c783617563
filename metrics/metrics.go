package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RecognitionsTotal counts recognition attempts by mode and outcome.
	RecognitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinelens",
		Subsystem: "pipeline",
		Name:      "recognitions_total",
		Help:      "Total number of recognition attempts, labeled by mode and result.",
	}, []string{"mode", "result"})

	// ModelCallDurationSeconds is the wall time of the upstream model call.
	ModelCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinelens",
		Subsystem: "pipeline",
		Name:      "model_call_duration_seconds",
		Help:      "Duration of the upstream model invocation.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"mode"})

	// QuotaDeniedTotal counts attempts rejected by the daily quota gate.
	QuotaDeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cinelens",
		Subsystem: "pipeline",
		Name:      "quota_denied_total",
		Help:      "Total number of recognition attempts denied by the daily quota.",
	})

	// UploadsTotal counts stored image uploads.
	UploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cinelens",
		Subsystem: "pipeline",
		Name:      "uploads_total",
		Help:      "Total number of stored image uploads.",
	})
)

// Register registers pipeline metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RecognitionsTotal,
			ModelCallDurationSeconds,
			QuotaDeniedTotal,
			UploadsTotal,
		)
	})
}
