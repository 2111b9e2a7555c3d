package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"train-tracker/internal/clock"
	"train-tracker/internal/source"
	"train-tracker/internal/status"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Publisher interface {
	PublishStatus(st status.TrainStatus) error
	PublishRemoved(trainID string, instanceID int) error
}

type Store interface {
	SaveSnapshot(ctx context.Context, trainID string, resolvedAt time.Time, statuses []status.TrainStatus) error
	LatestSnapshot(ctx context.Context, trainID string) ([]status.TrainStatus, error)
}

type Metrics interface {
	RefreshInc(trainID, result string)
	FetchErrInc(trainID string)
	FetchObserve(d time.Duration)
	ResolveObserve(d time.Duration)
	InstancesSet(trainID string, n int)
	StatusesChangedAdd(trainID string, n int)
	SnapshotWrittenInc()
	SnapshotErrInc()
}

// Snapshot is the latest resolution of one train number.
type Snapshot struct {
	TrainID    string               `json:"trainId"`
	ResolvedAt time.Time            `json:"resolvedAt"`
	Statuses   []status.TrainStatus `json:"statuses"`
}

type Options struct {
	Trains          []string
	Engine          *status.Engine
	Parser          source.Parser
	Fetcher         Fetcher
	URLFor          func(trainID string, day time.Time) string
	Location        *time.Location
	RefreshInterval time.Duration
	Clock           clock.Clock

	// Optional collaborators; nil disables them.
	Publisher Publisher
	Store     Store
	Metrics   Metrics
}

type Manager struct {
	trains          []string
	engine          *status.Engine
	parser          source.Parser
	fetcher         Fetcher
	urlFor          func(trainID string, day time.Time) string
	tz              *time.Location
	refreshInterval time.Duration
	clock           clock.Clock
	pub             Publisher
	store           Store
	metrics         Metrics

	latest *cache.Cache // trainID -> Snapshot

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

func NewManager(opts Options) *Manager {
	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	tz := opts.Location
	if tz == nil {
		tz = time.Local
	}
	engine := opts.Engine
	if engine == nil {
		engine = status.NewEngine(c, nil)
	}
	return &Manager{
		trains:          opts.Trains,
		engine:          engine,
		parser:          opts.Parser,
		fetcher:         opts.Fetcher,
		urlFor:          opts.URLFor,
		tz:              tz,
		refreshInterval: opts.RefreshInterval,
		clock:           c,
		pub:             opts.Publisher,
		store:           opts.Store,
		metrics:         opts.Metrics,
		latest:          cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

// Warm loads the last persisted snapshot of every train into the cache.
func (m *Manager) Warm(ctx context.Context) {
	if m.store == nil {
		return
	}
	for _, trainID := range m.trains {
		statuses, err := m.store.LatestSnapshot(ctx, trainID)
		if err != nil {
			log.Printf("load snapshot for train %s: %v", trainID, err)
			continue
		}
		if len(statuses) == 0 {
			continue
		}
		m.latest.Set(trainID, Snapshot{TrainID: trainID, ResolvedAt: statuses[0].LastUpdated, Statuses: statuses}, cache.NoExpiration)
		log.Printf("loaded %d stored statuses for train %s", len(statuses), trainID)
	}
}

func (m *Manager) StartRefresher(parent context.Context) {
	if m.refreshInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		// immediate refresh on start
		m.RefreshAll(ctx)
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.RefreshAll(ctx)
			}
		}
	}()
}

func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
}

// RefreshAll refreshes every tracked train concurrently and waits for all of them.
func (m *Manager) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, trainID := range m.trains {
		wg.Add(1)
		go func(trainID string) {
			defer wg.Done()
			m.refreshTrain(ctx, trainID)
		}(trainID)
	}
	wg.Wait()
}

func (m *Manager) refreshTrain(ctx context.Context, trainID string) {
	day := m.clock.Now().In(m.tz)
	url := m.urlFor(trainID, day)

	fetchStart := time.Now()
	payload, fetchErr := m.fetcher.Fetch(ctx, url)
	if m.metrics != nil {
		m.metrics.FetchObserve(time.Since(fetchStart))
	}
	if fetchErr != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("fetch train %s from %s: %v", trainID, url, fetchErr)
		if m.metrics != nil {
			m.metrics.FetchErrInc(trainID)
			m.metrics.RefreshInc(trainID, "fetch_error")
		}
		// Keep serving the previous snapshot; a failed fetch says nothing new about the train.
		return
	}

	resolveStart := time.Now()
	statuses := m.engine.Resolve(status.Request{
		TrainID:       trainID,
		Payload:       payload,
		Parser:        m.parser,
		ReferenceDate: day,
	})
	if m.metrics != nil {
		m.metrics.ResolveObserve(time.Since(resolveStart))
		m.metrics.InstancesSet(trainID, len(statuses))
		if len(statuses) == 0 {
			m.metrics.RefreshInc(trainID, "empty")
		} else {
			m.metrics.RefreshInc(trainID, "ok")
		}
	}

	var previous []status.TrainStatus
	if snap, ok := m.Latest(trainID); ok {
		previous = snap.Statuses
	}
	changed := Changed(previous, statuses)
	removed := Removed(previous, statuses)

	resolvedAt := m.clock.Now()
	m.latest.Set(trainID, Snapshot{TrainID: trainID, ResolvedAt: resolvedAt, Statuses: statuses}, cache.NoExpiration)

	if len(changed) == 0 && len(removed) == 0 {
		return
	}
	log.Printf("train %s: %d of %d instance statuses changed, %d removed", trainID, len(changed), len(statuses), len(removed))
	if m.metrics != nil {
		m.metrics.StatusesChangedAdd(trainID, len(changed)+len(removed))
	}

	if m.pub != nil {
		for _, st := range changed {
			if err := m.pub.PublishStatus(st); err != nil {
				log.Printf("publish error for train %s instance %d: %v", trainID, st.InstanceID, err)
			}
		}
		for _, id := range removed {
			if err := m.pub.PublishRemoved(trainID, id); err != nil {
				log.Printf("publish removal error for train %s instance %d: %v", trainID, id, err)
			}
		}
	}
	if m.store != nil {
		if err := m.store.SaveSnapshot(ctx, trainID, resolvedAt, statuses); err != nil {
			log.Printf("save snapshot for train %s: %v", trainID, err)
			if m.metrics != nil {
				m.metrics.SnapshotErrInc()
			}
		} else if m.metrics != nil {
			m.metrics.SnapshotWrittenInc()
		}
	}
}

// Latest returns the cached snapshot of trainID.
func (m *Manager) Latest(trainID string) (Snapshot, bool) {
	v, ok := m.latest.Get(trainID)
	if !ok {
		return Snapshot{}, false
	}
	return v.(Snapshot), true
}

// All returns the cached snapshots in configured train order, skipping trains not yet resolved.
func (m *Manager) All() []Snapshot {
	out := make([]Snapshot, 0, len(m.trains))
	for _, trainID := range m.trains {
		if snap, ok := m.Latest(trainID); ok {
			out = append(out, snap)
		}
	}
	return out
}

func (m *Manager) tracks(trainID string) bool {
	for _, t := range m.trains {
		if t == trainID {
			return true
		}
	}
	return false
}
