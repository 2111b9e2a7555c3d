package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"train-tracker/internal/clock"
	"train-tracker/internal/config"
	"train-tracker/internal/db"
	"train-tracker/internal/fetch"
	"train-tracker/internal/metrics"
	"train-tracker/internal/publisher"
	"train-tracker/internal/source"
	"train-tracker/internal/status"
	"train-tracker/internal/tracker"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clk := clock.RealClock{}
	parser, err := source.ForName(cfg.SourceType, clk)
	if err != nil {
		log.Fatalf("source error: %v", err)
	}

	opts := tracker.Options{
		Trains:  cfg.Trains,
		Engine:  status.NewEngine(clk, log.Default()),
		Parser:  parser,
		Fetcher: fetch.New(fetch.Options{Timeout: cfg.FetchTimeout, RPS: cfg.FetchRPS, Headers: cfg.SourceHeaders}),
		URLFor:  cfg.SourceURL,

		Location:        cfg.Location,
		RefreshInterval: cfg.RefreshInterval,
		Clock:           clk,
	}

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(len(cfg.Trains), cfg.RefreshInterval)
		srv := mcol.Serve(cfg.MetricsAddr)
		defer shutdown(srv.Shutdown)
		opts.Metrics = wrapTrackerMetrics(mcol)
	}

	// Snapshot persistence is optional
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open error: %v", err)
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
		store := db.NewSnapshotStore(sqlDB)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("db schema error: %v", err)
		}
		opts.Store = store
	} else {
		log.Printf("DATABASE_URL not set; snapshots will not be persisted")
	}

	// Initialize NATS publisher
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
		opts.Publisher = pub
	} else {
		log.Printf("NATS_URL not set; status changes will not be published")
	}

	mgr := tracker.NewManager(opts)
	mgr.Warm(ctx)
	if cfg.HTTPAddr != "" {
		srv := mgr.Serve(cfg.HTTPAddr)
		defer shutdown(srv.Shutdown)
	}

	log.Printf("tracking trains %v from %s source every %s", cfg.Trains, cfg.SourceType, cfg.RefreshInterval)
	mgr.StartRefresher(ctx)

	// Block until context cancelled
	<-ctx.Done()
	mgr.Stop()
	log.Println("shutdown complete")
}

func shutdown(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = fn(ctx)
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}

// wrapTrackerMetrics adapts our Collector to the refresh manager's Metrics interface.
func wrapTrackerMetrics(c *metrics.Collector) tracker.Metrics {
	return &trackerMetrics{c: c}
}

type trackerMetrics struct{ c *metrics.Collector }

func (t *trackerMetrics) RefreshInc(trainID, result string) {
	t.c.Refreshes.WithLabelValues(trainID, result).Inc()
}
func (t *trackerMetrics) FetchErrInc(trainID string)     { t.c.FetchErrors.WithLabelValues(trainID).Inc() }
func (t *trackerMetrics) FetchObserve(d time.Duration)   { t.c.FetchDuration.Observe(d.Seconds()) }
func (t *trackerMetrics) ResolveObserve(d time.Duration) { t.c.ResolveDuration.Observe(d.Seconds()) }
func (t *trackerMetrics) InstancesSet(trainID string, n int) {
	t.c.Instances.WithLabelValues(trainID).Set(float64(n))
}
func (t *trackerMetrics) StatusesChangedAdd(trainID string, n int) {
	t.c.StatusesChanged.WithLabelValues(trainID).Add(float64(n))
}
func (t *trackerMetrics) SnapshotWrittenInc() { t.c.SnapshotWrites.Inc() }
func (t *trackerMetrics) SnapshotErrInc()     { t.c.SnapshotErrs.Inc() }
