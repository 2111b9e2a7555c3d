package status

import (
	"time"

	"train-tracker/internal/route"
	"train-tracker/internal/source"
)

// Instance is one physical run of a train number seen in a payload.
type Instance struct {
	ID          int
	RunID       string
	Records     []source.Record
	Progression Progression
	ETA         *time.Time
	IsNext      bool
}

// Group splits records into instances, numbered from 1 in encounter order.
// Records carrying run identifiers are grouped by identifier. Otherwise an
// instance ends when the next record sits earlier on the route than the
// previous one, i.e. the listing restarted from the origin. Repeated rows for
// the same station stay in one instance.
func Group(records []source.Record, r *route.Route) []Instance {
	if len(records) == 0 {
		return nil
	}
	if hasRunIDs(records) {
		return groupByRun(records)
	}

	var (
		instances []Instance
		current   []source.Record
		lastIndex = route.NotFound
	)
	flush := func() {
		if len(current) > 0 {
			instances = append(instances, Instance{ID: len(instances) + 1, Records: current})
		}
		current = nil
		lastIndex = route.NotFound
	}
	for _, rec := range records {
		idx := locate(rec, r)
		if idx != route.NotFound && lastIndex != route.NotFound && idx < lastIndex {
			flush()
		}
		current = append(current, rec)
		if idx != route.NotFound {
			lastIndex = idx
		}
	}
	flush()
	return instances
}

func hasRunIDs(records []source.Record) bool {
	for _, rec := range records {
		if rec.RunID != "" {
			return true
		}
	}
	return false
}

// groupByRun keeps first-seen order of run identifiers. A record without an
// identifier joins the run of the record before it.
func groupByRun(records []source.Record) []Instance {
	var instances []Instance
	byRun := make(map[string]int)
	prev := -1
	for _, rec := range records {
		pos := prev
		if rec.RunID != "" || prev < 0 {
			var ok bool
			pos, ok = byRun[rec.RunID]
			if !ok {
				instances = append(instances, Instance{ID: len(instances) + 1, RunID: rec.RunID})
				pos = len(instances) - 1
				byRun[rec.RunID] = pos
			}
		}
		instances[pos].Records = append(instances[pos].Records, rec)
		prev = pos
	}
	return instances
}

// MarkNext flags the operationally current instance: the en-route instance
// with the earliest estimated arrival (encounter order breaks ties and ranks
// instances without an estimate last), or, when none is en route, the most
// recently created instance.
func MarkNext(instances []Instance) {
	if len(instances) == 0 {
		return
	}
	for i := range instances {
		instances[i].IsNext = false
	}

	best := -1
	for i, inst := range instances {
		if inst.Progression.State != EnRoute {
			continue
		}
		if best < 0 || earlier(inst.ETA, instances[best].ETA) {
			best = i
		}
	}
	if best < 0 {
		best = len(instances) - 1
	}
	instances[best].IsNext = true
}

func earlier(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return a.Before(*b)
}
