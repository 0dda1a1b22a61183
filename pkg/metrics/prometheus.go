package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors
type Metrics struct {
	POBQueries      prometheus.Counter
	Reorders        prometheus.Counter
	Moves           prometheus.Counter
	SyncFailures    *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	CachedTrips     prometheus.Gauge
}

// NewMetrics registers the collectors on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		POBQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pob_queries_total",
			Help:      "The total number of POB computations served",
		}),
		Reorders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorders_total",
			Help:      "The total number of completed manifest reorders",
		}),
		Moves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "The total number of trips moved to another date",
		}),
		SyncFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Store writes that failed and forced a refetch",
		}, []string{"operation"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time taken to refetch trips, sites and passengers",
			Buckets:   prometheus.DefBuckets,
		}),
		CachedTrips: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_trips",
			Help:      "Trips held in the read-through cache",
		}),
	}
}
