package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	TrackedTrains prometheus.Gauge
	Instances     *prometheus.GaugeVec // train label

	Refreshes       *prometheus.CounterVec // train, result label: ok|empty|fetch_error
	StatusesChanged *prometheus.CounterVec // train label
	FetchErrors     *prometheus.CounterVec // train label
	SnapshotWrites  prometheus.Counter
	SnapshotErrs    prometheus.Counter
	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	ResolveDuration prometheus.Histogram
	FetchDuration   prometheus.Histogram
	PublishDuration prometheus.Histogram
	RefreshInterval prometheus.Gauge // seconds
}

func NewCollector(trackedTrains int, refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TrackedTrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_tracked_trains",
			Help: "Number of train numbers being refreshed.",
		}),
		Instances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracker_train_instances",
			Help: "Running instances found for a train number in the last refresh.",
		}, []string{"train"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_refreshes_total",
			Help: "Per-train refresh passes by result.",
		}, []string{"train", "result"}),
		StatusesChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_statuses_changed_total",
			Help: "Instance statuses that differed from the previous refresh.",
		}, []string{"train"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_fetch_errors_total",
			Help: "Upstream fetch failures.",
		}, []string{"train"}),
		SnapshotWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_snapshot_writes_total",
			Help: "Snapshots persisted to the database.",
		}),
		SnapshotErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_snapshot_errors_total",
			Help: "Snapshot persistence failures.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_resolve_duration_seconds",
			Help:    "Duration of a single status resolution.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_fetch_duration_seconds",
			Help:    "Duration of upstream fetches, including rate limit waits.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_refresh_interval_seconds",
			Help: "Refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.TrackedTrains, c.Instances,
		c.Refreshes, c.StatusesChanged, c.FetchErrors,
		c.SnapshotWrites, c.SnapshotErrs,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.ResolveDuration, c.FetchDuration, c.PublishDuration,
		c.RefreshInterval,
	)

	c.TrackedTrains.Set(float64(trackedTrains))
	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
