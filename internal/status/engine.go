// Package status resolves where each run of a tracked train is and what its
// next station is, reconciling source records against the canonical route.
package status

import (
	"log"
	"time"
	_ "time/tzdata" // station zones must resolve on hosts without a zoneinfo database

	"train-tracker/internal/clock"
	"train-tracker/internal/route"
	"train-tracker/internal/source"
)

// Request carries one already-fetched payload for one train number.
type Request struct {
	TrainID       string
	Payload       []byte
	Parser        source.Parser
	ReferenceDate time.Time // service day the payload describes; zero means today
	FetchErr      error     // set by the caller when the fetch itself failed
}

// Engine resolves payloads into statuses. It holds no per-train state and is
// safe for concurrent use.
type Engine struct {
	Clock  clock.Clock
	Logger *log.Logger
}

func NewEngine(c clock.Clock, logger *log.Logger) *Engine {
	if c == nil {
		c = clock.RealClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{Clock: c, Logger: logger}
}

// Resolve returns one status per instance found in the payload. Every failure
// (missing payload, fetch error, unparseable payload, unknown train) yields an
// empty result rather than an error.
func (e *Engine) Resolve(req Request) []TrainStatus {
	statuses := []TrainStatus{}

	dir, ok := route.DirectionFor(req.TrainID)
	if !ok {
		e.logf("unsupported train %q", req.TrainID)
		return statuses
	}
	r, _ := route.For(dir)

	if req.FetchErr != nil {
		e.logf("train %s: no payload: %v", req.TrainID, req.FetchErr)
		return statuses
	}
	if len(req.Payload) == 0 || req.Parser == nil {
		e.logf("train %s: no payload", req.TrainID)
		return statuses
	}

	records, err := req.Parser.Parse(req.Payload, req.TrainID)
	if err != nil {
		e.logf("train %s: %v", req.TrainID, err)
		return statuses
	}

	now := e.now()
	ref := req.ReferenceDate
	if ref.IsZero() {
		ref = now
	}

	instances := Group(records, r)
	for i := range instances {
		inst := &instances[i]
		inst.Progression = Resolve(inst.Records, r)
		inst.ETA = estimateArrival(*inst, r, ref)
		if inst.Progression.SourceDisagrees(r) {
			e.logf("train %s instance %d: source says next station %q, route says %q",
				req.TrainID, inst.ID, inst.Progression.SourceNextStation, inst.Progression.NextStation)
		}
	}
	MarkNext(instances)

	for _, inst := range instances {
		statuses = append(statuses, build(req.TrainID, r, inst, now))
	}
	return statuses
}

func (e *Engine) now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock.Now()
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger == nil {
		log.Printf(format, args...)
		return
	}
	e.Logger.Printf(format, args...)
}
