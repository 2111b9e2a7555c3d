// Package route holds the canonical, ordered station lists of the tracked
// Chicago–Los Angeles service and the tolerant matcher that maps free-text
// source labels onto them.
package route

import (
	"slices"
	"strings"
)

// Direction is the travel direction of a train along the corridor.
type Direction string

const (
	Westbound Direction = "westbound"
	Eastbound Direction = "eastbound"
)

// Train numbers tracked by the service.
const (
	WestboundTrain = "3"
	EastboundTrain = "4"
)

// Station is one stop of a route.
type Station struct {
	Name string
	Code string
	Zone string // IANA time zone name
}

// Route is an immutable, ordered list of stations for one direction.
type Route struct {
	Direction Direction
	stations  []Station
}

// westboundStations runs from the origin (Chicago) to the destination (Los Angeles).
var westboundStations = []Station{
	{"Chicago", "CHI", "America/Chicago"},
	{"Naperville", "NPV", "America/Chicago"},
	{"Mendota", "MDT", "America/Chicago"},
	{"Princeton", "PCT", "America/Chicago"},
	{"Galesburg", "GBB", "America/Chicago"},
	{"Fort Madison", "FMD", "America/Chicago"},
	{"La Plata", "LAP", "America/Chicago"},
	{"Kansas City", "KCY", "America/Chicago"},
	{"Lawrence", "LRC", "America/Chicago"},
	{"Topeka", "TOP", "America/Chicago"},
	{"Newton", "NEW", "America/Chicago"},
	{"Hutchinson", "HUT", "America/Chicago"},
	{"Dodge City", "DDG", "America/Chicago"},
	{"Garden City", "GCK", "America/Chicago"},
	{"Lamar", "LMR", "America/Denver"},
	{"La Junta", "LAJ", "America/Denver"},
	{"Trinidad", "TRI", "America/Denver"},
	{"Raton", "RAT", "America/Denver"},
	{"Las Vegas", "LSV", "America/Denver"},
	{"Lamy", "LMY", "America/Denver"},
	{"Albuquerque", "ABQ", "America/Denver"},
	{"Gallup", "GLP", "America/Denver"},
	{"Winslow", "WLO", "America/Phoenix"},
	{"Flagstaff", "FLG", "America/Phoenix"},
	{"Kingman", "KNG", "America/Phoenix"},
	{"Needles", "NDL", "America/Los_Angeles"},
	{"Barstow", "BAR", "America/Los_Angeles"},
	{"Victorville", "VRV", "America/Los_Angeles"},
	{"San Bernardino", "SNB", "America/Los_Angeles"},
	{"Riverside", "RIV", "America/Los_Angeles"},
	{"Fullerton", "FUL", "America/Los_Angeles"},
	{"Los Angeles", "LAX", "America/Los_Angeles"},
}

var (
	westbound = &Route{Direction: Westbound, stations: slices.Clone(westboundStations)}
	eastbound = &Route{Direction: Eastbound, stations: reversed(westboundStations)}
)

func reversed(in []Station) []Station {
	out := slices.Clone(in)
	slices.Reverse(out)
	return out
}

// For returns the canonical route of a direction.
func For(d Direction) (*Route, bool) {
	switch d {
	case Westbound:
		return westbound, true
	case Eastbound:
		return eastbound, true
	}
	return nil, false
}

// DirectionFor maps a tracked train number onto its direction of travel.
func DirectionFor(trainID string) (Direction, bool) {
	switch strings.TrimSpace(trainID) {
	case WestboundTrain:
		return Westbound, true
	case EastboundTrain:
		return Eastbound, true
	}
	return "", false
}

// StationsFor returns the ordered station names of a direction, or nil for an
// unknown direction.
func StationsFor(d Direction) []string {
	r, ok := For(d)
	if !ok {
		return nil
	}
	return r.Names()
}

// Names returns the station names in route order.
func (r *Route) Names() []string {
	names := make([]string, len(r.stations))
	for i, s := range r.stations {
		names[i] = s.Name
	}
	return names
}

// Stations returns a copy of the route's stations.
func (r *Route) Stations() []Station {
	return slices.Clone(r.stations)
}

// Len returns the number of stations.
func (r *Route) Len() int { return len(r.stations) }

// At returns the station at i, or false when i is out of range.
func (r *Route) At(i int) (Station, bool) {
	if i < 0 || i >= len(r.stations) {
		return Station{}, false
	}
	return r.stations[i], true
}

// IndexOf returns the position of the station with exactly this name
// (case-insensitive), or -1.
func (r *Route) IndexOf(name string) int {
	name = strings.TrimSpace(name)
	for i, s := range r.stations {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether i is the last station of the route.
func (r *Route) IsTerminal(i int) bool {
	return len(r.stations) > 0 && i == len(r.stations)-1
}

// Terminal returns the last station of the route.
func (r *Route) Terminal() Station {
	return r.stations[len(r.stations)-1]
}

// Next returns the successor of the station at i. There is none for the
// terminal or an out-of-range index.
func (r *Route) Next(i int) (Station, bool) {
	if i < 0 || i >= len(r.stations)-1 {
		return Station{}, false
	}
	return r.stations[i+1], true
}
