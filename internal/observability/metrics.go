package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_explorer"

// Metrics holds the Prometheus collectors for the dashboard.
type Metrics struct {
	Syncs            prometheus.Counter
	SyncDuration     prometheus.Histogram
	EffectiveSize    prometheus.Gauge
	RenderErrors     *prometheus.CounterVec // labels: renderer
	BrushTransitions *prometheus.CounterVec // labels: to={idle,select,selecting,done}
	AnimationTicks   prometheus.Counter
	Animating        prometheus.Gauge

	// Startup loads.
	CatalogRecords prometheus.Gauge
	GeodataLoads   *prometheus.CounterVec // labels: dataset, outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Syncs,
		m.SyncDuration,
		m.EffectiveSize,
		m.RenderErrors,
		m.BrushTransitions,
		m.AnimationTicks,
		m.Animating,
		m.CatalogRecords,
		m.GeodataLoads,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Syncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syncs_total",
			Help:      "View recomputations triggered by user actions or animation ticks.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Time to resolve the effective set and rebuild every view.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		EffectiveSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "effective_records",
			Help:      "Records in the current effective set.",
		}),
		RenderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Renderer failures by renderer name.",
		}, []string{"renderer"}),
		BrushTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brush_transitions_total",
			Help:      "Brush state changes by target phase.",
		}, []string{"to"}),
		AnimationTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animation_ticks_total",
			Help:      "Year range steps applied by the animator.",
		}),
		Animating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "animating",
			Help:      "1 while the year range animation is running.",
		}),
		CatalogRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_records",
			Help:      "Records admitted into the catalog at load.",
		}),
		GeodataLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geodata_loads_total",
			Help:      "Auxiliary dataset loads by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
	}
}
