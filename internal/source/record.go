// Package source turns raw upstream payloads (timetable pages, transit API
// documents, map feeds) into ordered station interaction records.
package source

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"train-tracker/internal/clock"
)

// ErrNoData marks a payload that does not have the expected shape. Callers
// treat it exactly like a missing payload.
var ErrNoData = errors.New("source: no data")

// Record is one row of source evidence about a station.
type Record struct {
	Code      string // three-letter station code, may be empty
	Name      string
	Marker    string // "Dp" or "Ar" when the source says which event was scheduled
	Scheduled string // scheduled time as shown by the source
	Actual    string // actual time or status text; empty until the station is reached

	RunID             string     // source run identifier, when the source distinguishes runs
	ScheduledAt       *time.Time // absolute scheduled time, when the source provides one
	EstimatedArrival  *time.Time
	DelayText         string // e.g. "15 minutes late"
	SourceNextStation string // the source's own opinion of the next station
	Zone              string // source-provided time zone name
}

// HasActual reports whether the station carries any actual time or status.
func (r Record) HasActual() bool {
	return strings.TrimSpace(r.Actual) != ""
}

// Label is the text used to locate the record on the canonical route.
func (r Record) Label() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.Code
}

// Parser turns a raw payload into records for one train number. Payloads
// without the expected shape yield an error wrapping ErrNoData.
type Parser interface {
	Parse(payload []byte, trainID string) ([]Record, error)
}

// Source type names accepted by ForName.
const (
	TypeTimetable = "timetable"
	TypeTransit   = "transit"
	TypeMapFeed   = "mapfeed"
)

// ForName returns the parser for a configured source type.
func ForName(name string, c clock.Clock) (Parser, error) {
	if c == nil {
		c = clock.RealClock{}
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case TypeTimetable, "html":
		return TimetableParser{}, nil
	case TypeTransit, "json":
		return TransitParser{Clock: c}, nil
	case TypeMapFeed, "geojson":
		return MapFeedParser{}, nil
	}
	return nil, fmt.Errorf("unknown source type %q", name)
}

func noData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNoData, fmt.Sprintf(format, args...))
}

// collapseSpace trims s and folds internal runs of whitespace into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
