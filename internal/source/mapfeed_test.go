package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapFeed = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 101, "geometry": {"type": "Point", "coordinates": [-111.65, 35.19]},
     "properties": {"TrainNum": "3", "TrainID": "3-14", "EventCode": "FLG", "EventName": "Flagstaff",
                    "StatusMsg": "Departed", "NextStation": "Kingman", "Delay": 25, "EventTZ": "America/Phoenix"}},
    {"type": "Feature", "id": 102, "geometry": {"type": "Point", "coordinates": [-87.64, 41.88]},
     "properties": {"TrainNum": 3, "EventCode": "CHI", "TrainState": "Predeparture", "EventSchDp": "2:50 PM"}},
    {"type": "Feature", "id": 103, "geometry": {"type": "Point", "coordinates": [-94.59, 39.09]},
     "properties": {"TrainNum": "4", "EventCode": "KCY", "StatusMsg": "Departed", "Delay": "-3"}}
  ]
}`

func TestMapFeedParser_FiltersByTrain(t *testing.T) {
	records, err := MapFeedParser{}.Parse([]byte(mapFeed), "3")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "FLG", records[0].Code)
	assert.Equal(t, "Flagstaff", records[0].Name)
	assert.Equal(t, "Departed", records[0].Actual)
	assert.Equal(t, "Kingman", records[0].SourceNextStation)
	assert.Equal(t, "25 minutes late", records[0].DelayText)
	assert.Equal(t, "3-14", records[0].RunID)

	assert.Equal(t, "CHI", records[1].Code)
	assert.Equal(t, "CHI", records[1].Label())
	assert.False(t, records[1].HasActual())
	assert.Equal(t, "Dp", records[1].Marker)
	assert.Equal(t, "2:50 PM", records[1].Scheduled)
	assert.Equal(t, "102", records[1].RunID)
}

func TestMapFeedParser_EarlyDelayString(t *testing.T) {
	records, err := MapFeedParser{}.Parse([]byte(mapFeed), "4")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "3 minutes early", records[0].DelayText)
	assert.Equal(t, "Departed", records[0].Actual)
}

func TestMapFeedParser_DelayForms(t *testing.T) {
	tests := []struct {
		delay string
		want  string
	}{
		{`12`, "12 minutes late"},
		{`"12"`, "12 minutes late"},
		{`-5`, "5 minutes early"},
		{`"-5"`, "5 minutes early"},
		{`0`, ""},
		{`" 0 "`, ""},
		{`"about 10 min late"`, "about 10 min late"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.delay, func(t *testing.T) {
			doc := `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-94.59, 39.09]},
   "properties": {"TrainNum": "4", "EventCode": "KCY", "StatusMsg": "Departed", "Delay": ` + tt.delay + `}}]}`
			records, err := MapFeedParser{}.Parse([]byte(doc), "4")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].DelayText)
		})
	}
}

func TestMapFeedParser_NoData(t *testing.T) {
	for _, doc := range []string{"", "{", `{"type": "FeatureCollection", "features": []}`} {
		_, err := MapFeedParser{}.Parse([]byte(doc), "3")
		assert.ErrorIs(t, err, ErrNoData, "document %q", doc)
	}

	_, err := MapFeedParser{}.Parse([]byte(mapFeed), "5")
	assert.ErrorIs(t, err, ErrNoData)
}
