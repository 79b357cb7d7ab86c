package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the sync core. It registers on
// the registry it is given, so tests can use a throwaway registry.
type Collector struct {
	registry *prometheus.Registry

	// Sync engine metrics
	Pushes       prometheus.Counter
	PushFailures prometheus.Counter
	PushSkipped  prometheus.Counter
	PushDuration prometheus.Histogram
	Pulls        prometheus.Counter
	PullFailures prometheus.Counter

	// Local cache metrics
	CacheWrites      prometheus.Counter
	CacheWriteErrors prometheus.Counter

	// Inbox metrics
	ClipsIngested      prometheus.Counter
	ClipDeleteFailures prometheus.Counter
	PendingClips       prometheus.Gauge
}

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Total number of remote document pushes attempted",
		}),
		PushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_failures_total",
			Help:      "Total number of remote document pushes that failed",
		}),
		PushSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_skipped_total",
			Help:      "Debounce fires skipped because a push was already in flight",
		}),
		PushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "push_duration_seconds",
			Help:      "Remote document push duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		Pulls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pulls_total",
			Help:      "Total number of remote document pulls attempted",
		}),
		PullFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pull_failures_total",
			Help:      "Total number of remote document pulls that failed",
		}),
		CacheWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Total number of local cache writes",
		}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      "Total number of local cache writes that failed",
		}),
		ClipsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clips_ingested_total",
			Help:      "Total number of shared clips merged into the repository",
		}),
		ClipDeleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clip_delete_failures_total",
			Help:      "Inbox deletes that failed after a successful merge",
		}),
		PendingClips: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_clips",
			Help:      "Shared clips currently waiting in the inbox",
		}),
	}

	registry.MustRegister(
		c.Pushes, c.PushFailures, c.PushSkipped, c.PushDuration,
		c.Pulls, c.PullFailures,
		c.CacheWrites, c.CacheWriteErrors,
		c.ClipsIngested, c.ClipDeleteFailures, c.PendingClips,
	)

	return c
}

// Registry exposes the underlying registry for the /metrics handler
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObservePush records one push attempt
func (c *Collector) ObservePush(start time.Time, err error) {
	c.Pushes.Inc()
	c.PushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.PushFailures.Inc()
	}
}
