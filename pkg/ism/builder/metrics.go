package builder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments metadata builds and checkpoint fetches. A nil *Metrics
// records nothing.
type Metrics struct {
	builds        *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
}

// NewMetrics registers the builder metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ism_metadata_builds_total",
				Help: "Metadata builds by module kind and result",
			},
			[]string{"kind", "result"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ism_metadata_build_duration_seconds",
				Help:    "Duration of metadata builds by module kind",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ism_checkpoint_fetches_total",
				Help: "Validator checkpoint fetches by result",
			},
			[]string{"result"},
		),
	}
	for _, c := range []prometheus.Collector{m.builds, m.buildDuration, m.fetches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeBuild(kind string, result string, started time.Time) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(kind, result).Inc()
	m.buildDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeFetch(result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
}
