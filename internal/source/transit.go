package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"train-tracker/internal/clock"
)

// TransitParser reads transit API documents: either a single run
// {"stations": [...]} or runs keyed by train number
// {"3": [{"trainID": "3-17", "stations": [...]}]}.
// Station timestamps are epoch seconds.
type TransitParser struct {
	Clock clock.Clock
}

type transitRun struct {
	TrainID  string           `json:"trainID"`
	Stations []transitStation `json:"stations"`
}

type transitStation struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	TZ      string `json:"tz"`
	SchArr  *int64 `json:"schArr"`
	SchDep  *int64 `json:"schDep"`
	Arr     *int64 `json:"arr"`
	Dep     *int64 `json:"dep"`
	ArrCmnt string `json:"arrCmnt"`
	DepCmnt string `json:"depCmnt"`
}

func (p TransitParser) Parse(payload []byte, trainID string) ([]Record, error) {
	runs, err := decodeTransitRuns(payload, trainID)
	if err != nil {
		return nil, err
	}

	c := p.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	now := c.Now()

	var records []Record
	for i, run := range runs {
		runID := run.TrainID
		if runID == "" && len(runs) > 1 {
			runID = fmt.Sprintf("%s-run%d", trainID, i+1)
		}
		records = append(records, transitRecords(run, runID, now)...)
	}
	if len(records) == 0 {
		return nil, noData("transit document has no stations for train %s", trainID)
	}
	return records, nil
}

func decodeTransitRuns(payload []byte, trainID string) ([]transitRun, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, noData("empty transit document for train %s", trainID)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, noData("transit document for train %s: %v", trainID, err)
	}

	if _, ok := top["stations"]; ok {
		var run transitRun
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, noData("transit document for train %s: %v", trainID, err)
		}
		return []transitRun{run}, nil
	}

	raw, ok := top[strings.TrimSpace(trainID)]
	if !ok {
		return nil, noData("transit document has no entry for train %s", trainID)
	}
	var runs []transitRun
	if err := json.Unmarshal(raw, &runs); err != nil {
		return nil, noData("transit runs for train %s: %v", trainID, err)
	}
	return runs, nil
}

// transitRecords converts one run. A station counts as departed when its
// departure lies in the past; the source's next station is the first one
// whose arrival lies in the future.
func transitRecords(run transitRun, runID string, now time.Time) []Record {
	sourceNext := ""
	for _, st := range run.Stations {
		if arr := epoch(st.Arr); arr != nil && arr.After(now) {
			sourceNext = st.Name
			break
		}
	}

	records := make([]Record, 0, len(run.Stations))
	for _, st := range run.Stations {
		rec := Record{
			Code:              strings.ToUpper(strings.TrimSpace(st.Code)),
			Name:              collapseSpace(st.Name),
			RunID:             runID,
			Zone:              st.TZ,
			SourceNextStation: sourceNext,
		}

		rec.Marker, rec.ScheduledAt = "Ar", epoch(st.SchArr)
		if rec.ScheduledAt == nil {
			rec.Marker, rec.ScheduledAt = "Dp", epoch(st.SchDep)
		}
		if rec.ScheduledAt != nil {
			rec.Scheduled = rec.ScheduledAt.In(zoneOrUTC(st.TZ)).Format("3:04 PM")
		} else {
			rec.Marker = ""
		}

		arr, dep := epoch(st.Arr), epoch(st.Dep)
		switch {
		case dep != nil && !dep.After(now):
			rec.Actual = withComment("Departed", st.DepCmnt)
			rec.DelayText = st.DepCmnt
		case arr != nil && !arr.After(now):
			rec.Actual = withComment("Arrived", st.ArrCmnt)
			rec.DelayText = st.ArrCmnt
		default:
			if arr != nil {
				rec.EstimatedArrival = arr
			}
			rec.DelayText = st.ArrCmnt
		}
		records = append(records, rec)
	}
	return records
}

func epoch(v *int64) *time.Time {
	if v == nil || *v <= 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

func withComment(event, comment string) string {
	comment = collapseSpace(comment)
	if comment == "" {
		return event
	}
	return event + ": " + comment
}

func zoneOrUTC(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
