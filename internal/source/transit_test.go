package source

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"train-tracker/internal/clock"
)

var transitNow = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

func at(d time.Duration) int64 { return transitNow.Add(d).Unix() }

func singleRunDocument() string {
	return fmt.Sprintf(`{
  "stations": [
    {"name": "Flagstaff", "code": "FLG", "tz": "America/Phoenix", "schDep": %d, "arr": %d, "dep": %d, "depCmnt": "15 minutes late"},
    {"name": "Kingman", "code": "KNG", "tz": "America/Phoenix", "schArr": %d, "arr": %d, "dep": %d, "arrCmnt": "20 minutes late", "depCmnt": "22 minutes late"},
    {"name": "Needles", "code": "NDL", "tz": "America/Los_Angeles", "schArr": %d, "arr": %d, "arrCmnt": "20 minutes late"}
  ]
}`,
		at(-3*time.Hour), at(-3*time.Hour-5*time.Minute), at(-3*time.Hour+15*time.Minute),
		at(-80*time.Minute), at(-60*time.Minute), at(-55*time.Minute),
		at(10*time.Minute), at(30*time.Minute))
}

func TestTransitParser_SingleRun(t *testing.T) {
	p := TransitParser{Clock: clock.NewMockClock(transitNow)}
	records, err := p.Parse([]byte(singleRunDocument()), "3")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Departed: 15 minutes late", records[0].Actual)
	assert.Equal(t, "Dp", records[0].Marker)
	assert.Equal(t, "Departed: 22 minutes late", records[1].Actual)
	assert.Equal(t, "22 minutes late", records[1].DelayText)
	assert.Equal(t, "Ar", records[1].Marker)

	assert.False(t, records[2].HasActual())
	require.NotNil(t, records[2].EstimatedArrival)
	assert.Equal(t, transitNow.Add(30*time.Minute), *records[2].EstimatedArrival)
	assert.Equal(t, "America/Los_Angeles", records[2].Zone)

	for _, r := range records {
		assert.Equal(t, "Needles", r.SourceNextStation)
		assert.Empty(t, r.RunID)
	}
}

func TestTransitParser_ArrivedButNotDeparted(t *testing.T) {
	doc := fmt.Sprintf(`{"stations": [{"name": "Chicago", "code": "CHI", "arr": %d, "arrCmnt": "55 minutes late"}]}`,
		at(-time.Minute))
	p := TransitParser{Clock: clock.NewMockClock(transitNow)}
	records, err := p.Parse([]byte(doc), "4")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Arrived: 55 minutes late", records[0].Actual)
	assert.Equal(t, "", records[0].SourceNextStation)
}

func TestTransitParser_KeyedRuns(t *testing.T) {
	doc := fmt.Sprintf(`{"3": [
  {"trainID": "3-14", "stations": [{"name": "Barstow", "code": "BAR", "dep": %d}]},
  {"trainID": "3-15", "stations": [{"name": "Chicago", "code": "CHI", "schDep": %d}]}
], "4": []}`, at(-time.Hour), at(2*time.Hour))

	p := TransitParser{Clock: clock.NewMockClock(transitNow)}
	records, err := p.Parse([]byte(doc), "3")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "3-14", records[0].RunID)
	assert.Equal(t, "Departed", records[0].Actual)
	assert.Equal(t, "3-15", records[1].RunID)
	assert.False(t, records[1].HasActual())

	_, err = p.Parse([]byte(doc), "4")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTransitParser_BadShapes(t *testing.T) {
	p := TransitParser{Clock: clock.NewMockClock(transitNow)}

	for _, doc := range []string{"", "not json", `[1,2,3]`, `{"5": []}`, `{"stations": []}`, `{"3": {"stations": 1}}`} {
		_, err := p.Parse([]byte(doc), "3")
		assert.ErrorIs(t, err, ErrNoData, "document %q", doc)
	}
}

func TestForName(t *testing.T) {
	p, err := ForName("timetable", nil)
	require.NoError(t, err)
	assert.IsType(t, TimetableParser{}, p)

	p, err = ForName(" Transit ", nil)
	require.NoError(t, err)
	assert.IsType(t, TransitParser{}, p)

	p, err = ForName("geojson", nil)
	require.NoError(t, err)
	assert.IsType(t, MapFeedParser{}, p)

	_, err = ForName("carrier-pigeon", nil)
	assert.Error(t, err)
}
