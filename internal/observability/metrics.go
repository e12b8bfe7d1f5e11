package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/crime-map-service/internal/domain"
)

const namespace = "crime_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh pipeline and its adapters.
type Metrics struct {
	PipelineRunning  prometheus.Gauge
	Refreshes        *prometheus.CounterVec // labels: outcome={success,error}
	RefreshErrors    *prometheus.CounterVec // labels: stage={load,publish}
	RefreshDuration  prometheus.Histogram
	LastRefresh      prometheus.Gauge
	MessagesProduced prometheus.Counter

	// Reconciliation results of the most recent refresh.
	Districts     *prometheus.GaugeVec // labels: state={total,matched,unmatched,overridden}
	Stations      *prometheus.GaugeVec // labels: state={total,located,assigned}
	InvalidLevels prometheus.Gauge

	// Geocoding metrics.
	StationsGeocoded   *prometheus.CounterVec // labels: outcome={located,empty,failed}
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Dataset refreshes by outcome.",
		}, []string{"outcome"}),
		RefreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Refresh failures by stage.",
		}, []string{"stage"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete load-reconcile-publish cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the atlas currently being served.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "District classification messages written to Kafka.",
		}),
		Districts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "districts",
			Help:      "District polygons in the current atlas by reconciliation state.",
		}, []string{"state"}),
		Stations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations",
			Help:      "Stations in the current atlas by location state.",
		}, []string{"state"}),
		InvalidLevels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invalid_levels",
			Help:      "Crime-level table ratings that are not a recognized level.",
		}),
		StationsGeocoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_geocoded_total",
			Help:      "Stations without geometry sent to the geocoder, by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when station geocoding is enabled, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRunning,
		m.Refreshes,
		m.RefreshErrors,
		m.RefreshDuration,
		m.LastRefresh,
		m.MessagesProduced,
		m.Districts,
		m.Stations,
		m.InvalidLevels,
		m.StationsGeocoded,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}

// ObserveReport records the reconciliation summary of a freshly built atlas.
func (m *Metrics) ObserveReport(r domain.ReconcileReport) {
	m.Districts.WithLabelValues("total").Set(float64(r.Districts))
	m.Districts.WithLabelValues("matched").Set(float64(r.Matched))
	m.Districts.WithLabelValues("unmatched").Set(float64(len(r.Unmatched)))
	m.Districts.WithLabelValues("overridden").Set(float64(r.Overridden))
	m.Stations.WithLabelValues("total").Set(float64(r.Stations))
	m.Stations.WithLabelValues("located").Set(float64(r.StationsLocated))
	m.Stations.WithLabelValues("assigned").Set(float64(r.StationsAssigned))
	m.InvalidLevels.Set(float64(len(r.InvalidLevels)))
}
