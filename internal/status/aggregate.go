package status

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"train-tracker/internal/route"
	"train-tracker/internal/source"
)

const StatusOnTime = "On time"

// TrainStatus is the resolved status of one instance of a tracked train.
type TrainStatus struct {
	TrainID          string          `json:"trainId"`
	Direction        route.Direction `json:"direction"`
	LastUpdated      time.Time       `json:"lastUpdated"`
	CurrentLocation  string          `json:"currentLocation,omitempty"`
	NextStation      string          `json:"nextStation,omitempty"`
	EstimatedArrival *time.Time      `json:"estimatedArrival,omitempty"`
	Status           string          `json:"status"`
	DelayMinutes     *int            `json:"delayMinutes,omitempty"`
	Departed         bool            `json:"departed"`
	Timezone         string          `json:"timezone,omitempty"`
	InstanceID       int             `json:"instanceId"`
	IsNext           bool            `json:"isNext"`
}

// Delay is what could be read out of a source's delay text.
type Delay struct {
	Minutes int
	Early   bool
}

var (
	hoursRe   = regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?|h)\b`)
	minutesRe = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?|m)\b`)
	leadingRe = regexp.MustCompile(`^\D*?(\d+)`)
	timeOfDay = regexp.MustCompile(`^\d{1,2}:\d{2}`)
	clockRe   = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp])?\.?\s*[Mm]?\.?$`)
)

// ParseDelay reads "55 minutes late", "1 hr 5 min late" or "12 minutes early".
// Text without any number, or a bare time of day, yields ok == false.
func ParseDelay(text string) (d Delay, ok bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || timeOfDay.MatchString(text) {
		return Delay{}, false
	}
	d.Early = strings.Contains(text, "early")

	h := hoursRe.FindStringSubmatch(text)
	m := minutesRe.FindStringSubmatch(text)
	if h != nil || m != nil {
		if h != nil {
			n, _ := strconv.Atoi(h[1])
			d.Minutes += n * 60
		}
		if m != nil {
			n, _ := strconv.Atoi(m[1])
			d.Minutes += n
		}
		return d, true
	}

	l := leadingRe.FindStringSubmatch(text)
	if l == nil {
		return Delay{}, false
	}
	d.Minutes, _ = strconv.Atoi(l[1])
	return d, true
}

// delayText picks the delay phrase of a record: the source's own delay field,
// else whatever follows the event prefix of the actual text
// ("Arrived: 55 minutes late") when that reads as a delay. A time of day
// after the prefix ("Departed: 1:05 AM") is not one.
func delayText(rec *source.Record) string {
	if rec == nil {
		return ""
	}
	if t := strings.TrimSpace(rec.DelayText); t != "" {
		return t
	}
	actual := strings.TrimSpace(rec.Actual)
	if i := strings.IndexByte(actual, ':'); i >= 0 && !strings.ContainsAny(actual[:i], "0123456789") {
		if tail := strings.TrimSpace(actual[i+1:]); isDelayPhrase(tail) {
			return tail
		}
		return ""
	}
	if isDelayPhrase(actual) {
		return actual
	}
	return ""
}

func isDelayPhrase(text string) bool {
	lower := strings.ToLower(text)
	if timeOfDay.MatchString(lower) {
		return false
	}
	return strings.Contains(lower, "late") || strings.Contains(lower, "early") ||
		strings.Contains(lower, "on time") ||
		hoursRe.MatchString(lower) || minutesRe.MatchString(lower)
}

// statusText renders the delay, and returns the delay to emit: nil unless the
// train is actually running late.
func statusText(text string) (string, *int) {
	d, ok := ParseDelay(text)
	if !ok || d.Minutes <= 0 {
		return StatusOnTime, nil
	}
	if d.Early {
		return fmt.Sprintf("Early %d min", d.Minutes), nil
	}
	minutes := d.Minutes
	return fmt.Sprintf("Delayed %d min", minutes), &minutes
}

// build assembles the status of one instance.
func build(trainID string, r *route.Route, inst Instance, now time.Time) TrainStatus {
	p := inst.Progression
	st := TrainStatus{
		TrainID:          trainID,
		Direction:        r.Direction,
		LastUpdated:      now,
		NextStation:      p.NextStation,
		Departed:         p.Departed,
		InstanceID:       inst.ID,
		IsNext:           inst.IsNext,
		EstimatedArrival: inst.ETA,
	}
	st.Status, st.DelayMinutes = statusText(delayText(p.Last))
	st.CurrentLocation = currentLocation(p, r)
	st.Timezone = zoneAbbrev(statusZone(inst, r), referenceInstant(st.EstimatedArrival, now))
	return st
}

func currentLocation(p Progression, r *route.Route) string {
	if p.Last == nil {
		return ""
	}
	name := strings.TrimSpace(p.Last.Name)
	if p.State == StaleOrUnknown {
		switch {
		case name != "" && p.Last.Code != "":
			return fmt.Sprintf("%s (%s)", name, p.Last.Code)
		case name != "":
			return name
		}
		return p.Last.Code
	}
	if name == "" {
		if s, ok := r.At(p.LastIndex); ok {
			return s.Name
		}
	}
	return name
}

// statusZone picks the time zone the status is reported in: the next
// station's, as stated by the source or else by the route.
func statusZone(inst Instance, r *route.Route) string {
	p := inst.Progression
	switch p.State {
	case EnRoute, AtTerminal:
		if pos := nextRecordPos(inst.Records, p, r); pos >= 0 && inst.Records[pos].Zone != "" {
			return inst.Records[pos].Zone
		}
		if s, ok := r.At(p.NextIndex); ok {
			return s.Zone
		}
	case StaleOrUnknown:
		return p.Last.Zone
	}
	return ""
}

func zoneAbbrev(zone string, t time.Time) string {
	if zone == "" {
		return ""
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return ""
	}
	return t.In(loc).Format("MST")
}

func referenceInstant(eta *time.Time, now time.Time) time.Time {
	if eta != nil {
		return *eta
	}
	return now
}

// nextRecordPos finds the record describing the next station: the first one
// after the last station with data that sits at the next route index. For a
// terminal instance it is the last record with data itself.
func nextRecordPos(records []source.Record, p Progression, r *route.Route) int {
	if p.State == AtTerminal {
		return p.LastPos
	}
	if p.State != EnRoute {
		return -1
	}
	for i := p.LastPos + 1; i < len(records); i++ {
		if locate(records[i], r) == p.NextIndex {
			return i
		}
	}
	return -1
}

// estimateArrival predicts when an en-route instance reaches its next
// station: the source's estimate when it has one, otherwise the scheduled
// time plus the current delay.
func estimateArrival(inst Instance, r *route.Route, ref time.Time) *time.Time {
	p := inst.Progression
	if p.State != EnRoute {
		return nil
	}
	pos := nextRecordPos(inst.Records, p, r)
	if pos < 0 {
		return nil
	}
	next := inst.Records[pos]
	if next.EstimatedArrival != nil {
		eta := *next.EstimatedArrival
		return &eta
	}

	scheduled := next.ScheduledAt
	if scheduled == nil {
		scheduled = anchorSchedule(inst.Records, pos, r, ref)
	}
	if scheduled == nil {
		return nil
	}
	eta := *scheduled
	if _, delay := statusText(delayText(p.Last)); delay != nil {
		eta = eta.Add(time.Duration(*delay) * time.Minute)
	}
	return &eta
}

// anchorSchedule turns the clock-time schedule text of records[upto] into an
// absolute time. Walking from the first record, each clock time is placed on
// the reference date in its station's zone, rolling over a day whenever the
// schedule would go backwards.
func anchorSchedule(records []source.Record, upto int, r *route.Route, ref time.Time) *time.Time {
	var (
		prev   time.Time
		days   int
		target *time.Time
	)
	y, m, d := ref.Date()
	for i := 0; i <= upto && i < len(records); i++ {
		rec := records[i]
		hour, minute, ok := parseClock(rec.Scheduled)
		if !ok {
			continue
		}
		loc := recordLocation(rec, r, ref.Location())
		t := time.Date(y, m, d+days, hour, minute, 0, 0, loc)
		for !prev.IsZero() && t.Before(prev) {
			days++
			t = time.Date(y, m, d+days, hour, minute, 0, 0, loc)
		}
		prev = t
		if i == upto {
			target = &t
		}
	}
	return target
}

func recordLocation(rec source.Record, r *route.Route, fallback *time.Location) *time.Location {
	zone := rec.Zone
	if zone == "" {
		if s, ok := r.At(locate(rec, r)); ok {
			zone = s.Zone
		}
	}
	if zone != "" {
		if loc, err := time.LoadLocation(zone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

// parseClock reads "3:05 PM", "03:05P", "4:05pm" or "15:05".
func parseClock(text string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if minute > 59 {
		return 0, 0, false
	}
	switch strings.ToLower(m[3]) {
	case "a":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}
