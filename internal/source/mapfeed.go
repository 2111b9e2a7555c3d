package source

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// MapFeedParser reads the map feature collection, where every feature is one
// running train summarized by the upstream. It is the lowest-fidelity source
// and carries only the most recent station event.
type MapFeedParser struct{}

func (MapFeedParser) Parse(payload []byte, trainID string) ([]Record, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, noData("empty map feed for train %s", trainID)
	}
	fc, err := geojson.UnmarshalFeatureCollection(payload)
	if err != nil {
		return nil, noData("map feed for train %s: %v", trainID, err)
	}

	trainID = strings.TrimSpace(trainID)
	var records []Record
	for i, f := range fc.Features {
		if f == nil || propString(f, "TrainNum") != trainID {
			continue
		}
		rec := Record{
			Code:              strings.ToUpper(propString(f, "EventCode")),
			Name:              collapseSpace(propString(f, "EventName")),
			Scheduled:         propString(f, "EventSchDp"),
			SourceNextStation: propString(f, "NextStation"),
			Zone:              propString(f, "EventTZ"),
			DelayText:         delayText(f),
			RunID:             runID(f, i),
		}
		if rec.Scheduled != "" {
			rec.Marker = "Dp"
		}
		if strings.EqualFold(propString(f, "TrainState"), "Predeparture") {
			records = append(records, rec)
			continue
		}
		rec.Actual = propString(f, "StatusMsg")
		if rec.Actual == "" && (rec.Code != "" || rec.Name != "") {
			rec.Actual = "Departed"
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, noData("map feed has no features for train %s", trainID)
	}
	return records, nil
}

func runID(f *geojson.Feature, i int) string {
	if id := propString(f, "TrainID"); id != "" {
		return id
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return fmt.Sprintf("feature-%d", i+1)
}

// delayText renders the numeric Delay property (minutes) the same way the
// other sources phrase it.
func delayText(f *geojson.Feature) string {
	v, ok := f.Properties["Delay"]
	if !ok || v == nil {
		return ""
	}
	switch d := v.(type) {
	case float64:
		return minutesText(int(d))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(d)); err == nil {
			return minutesText(n)
		}
		return collapseSpace(d)
	}
	return ""
}

func minutesText(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf("%d minutes late", n)
	case n < 0:
		return fmt.Sprintf("%d minutes early", -n)
	}
	return ""
}

func propString(f *geojson.Feature, key string) string {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
