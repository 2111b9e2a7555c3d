package status

import (
	"strings"

	"train-tracker/internal/route"
	"train-tracker/internal/source"
)

// State is the position of one instance along its route.
type State int

const (
	// NoData: no record carries actual data yet.
	NoData State = iota
	// AtTerminal: the last station with data is the route's terminal.
	AtTerminal
	// EnRoute: the last station with data is a known, non-terminal station.
	EnRoute
	// StaleOrUnknown: the last station with data is not on the route.
	StaleOrUnknown
)

func (s State) String() string {
	switch s {
	case NoData:
		return "NO_DATA"
	case AtTerminal:
		return "AT_TERMINAL"
	case EnRoute:
		return "EN_ROUTE"
	case StaleOrUnknown:
		return "STALE_OR_UNKNOWN"
	}
	return "UNKNOWN"
}

// Progression is the resolver's verdict for one instance. Both the
// route-derived next station and the source's own claim are kept; only the
// former is ever emitted.
type Progression struct {
	State State

	LastPos   int // position of the last record with data within the instance, -1 if none
	LastIndex int // route index of that record, route.NotFound if unmatched
	Last      *source.Record

	NextIndex   int
	NextStation string
	Departed    bool

	SourceNextStation string
}

// SourceDisagrees reports whether the source named a next station other than
// the one derived from the route.
func (p Progression) SourceDisagrees(r *route.Route) bool {
	if p.SourceNextStation == "" || p.State != EnRoute {
		return false
	}
	return route.Resolve(p.SourceNextStation, r) != p.NextIndex
}

// Resolve decides the progression of one instance from its records, driven by
// the last record carrying actual data. Records without actual data are
// stations not reached yet.
func Resolve(records []source.Record, r *route.Route) Progression {
	p := Progression{
		LastPos:           -1,
		LastIndex:         route.NotFound,
		NextIndex:         route.NotFound,
		SourceNextStation: sourceClaim(records),
	}

	for i := len(records) - 1; i >= 0; i-- {
		if records[i].HasActual() {
			p.LastPos = i
			break
		}
	}
	if p.LastPos < 0 {
		p.State = NoData
		return p
	}
	last := records[p.LastPos]
	p.Last = &last

	if atTerminal(last, r) {
		p.State = AtTerminal
		p.LastIndex = r.Len() - 1
		p.NextIndex = p.LastIndex
		p.NextStation = strings.TrimSpace(last.Name)
		if p.NextStation == "" {
			p.NextStation = r.Terminal().Name
		}
		p.Departed = true
		return p
	}

	idx := locate(last, r)
	if idx == route.NotFound {
		p.State = StaleOrUnknown
		return p
	}
	next, ok := r.Next(idx)
	if !ok {
		// a terminal match by code or full scan that the terminal-only check missed
		p.State = AtTerminal
		p.LastIndex = idx
		p.NextIndex = idx
		p.NextStation = r.Terminal().Name
		p.Departed = true
		return p
	}
	p.State = EnRoute
	p.LastIndex = idx
	p.NextIndex = idx + 1
	p.NextStation = next.Name
	return p
}

// locate finds the route index of a record: by fuzzy name first, falling back
// to the station code. Code-only records are matched on the code alone, since
// short codes are substrings of unrelated station names.
func locate(rec source.Record, r *route.Route) int {
	if strings.TrimSpace(rec.Name) == "" {
		return route.ResolveCode(rec.Code, r)
	}
	if i := route.Resolve(rec.Name, r); i != route.NotFound {
		return i
	}
	return route.ResolveCode(rec.Code, r)
}

func atTerminal(rec source.Record, r *route.Route) bool {
	if strings.TrimSpace(rec.Name) != "" {
		return route.ResolveTerminal(rec.Name, r)
	}
	return rec.Code != "" && strings.EqualFold(rec.Code, r.Terminal().Code)
}

func sourceClaim(records []source.Record) string {
	for i := len(records) - 1; i >= 0; i-- {
		if c := strings.TrimSpace(records[i].SourceNextStation); c != "" {
			return c
		}
	}
	return ""
}
