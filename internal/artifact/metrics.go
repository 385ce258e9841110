package artifact

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records cache effectiveness and render cost
type Metrics struct {
	lookups        *prometheus.CounterVec
	renderFailures prometheus.Counter
	renderDuration prometheus.Histogram
}

// NewMetrics creates and registers the cache collectors
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_artifact_lookups_total",
			Help: "Artifact cache lookups by result.",
		},
		[]string{"result"}, // hit | miss
	)

	renderFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invoice_artifact_render_failures_total",
			Help: "Invoice renders that failed.",
		},
	)

	renderDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "invoice_artifact_render_duration_seconds",
			Help:    "Time spent rendering invoice PDFs.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	registerer.MustRegister(lookups, renderFailures, renderDuration)

	return &Metrics{
		lookups:        lookups,
		renderFailures: renderFailures,
		renderDuration: renderDuration,
	}
}

func (m *Metrics) hit() {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) miss() {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) observeRender(d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.renderFailures.Inc()
		return
	}
	m.renderDuration.Observe(d.Seconds())
}
