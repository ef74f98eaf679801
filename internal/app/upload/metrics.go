package upload

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts upload outcomes and their latency.
type Metrics struct {
	uploads  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates upload metrics and registers them on reg. A nil reg
// leaves them unregistered. Collectors already registered on reg are
// reused so several handlers can share one registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aitranscribe",
			Name:      "uploads_total",
			Help:      "Uploads by terminal outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aitranscribe",
			Name:      "upload_duration_seconds",
			Help:      "Time from trigger to saved download or failure.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	if reg == nil {
		return m
	}

	if err := reg.Register(m.uploads); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			m.uploads = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	if err := reg.Register(m.duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			m.duration = are.ExistingCollector.(prometheus.Histogram)
		}
	}

	return m
}

func (m *Metrics) observe(outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(string(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
