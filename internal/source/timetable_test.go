package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timetablePage = `<html><body>
<h1>Train 4 status</h1>
<table id="results">
  <tr><th>Station</th><th>Schedule</th><th>Actual</th></tr>
  <tr><td>Los Angeles, CA (LAX)</td><td>Dp 6:00 PM</td><td>Departed: 5 minutes late</td></tr>
  <tr><td>Fullerton, CA (FUL)</td><td>Dp 6:37 PM</td><td>Departed:   10 minutes late</td></tr>
  <tr><td>Riverside, CA (RIV)</td><td>Dp 7:20 PM</td><td></td></tr>
  <tr><td>Chicago Union Station, IL (CHI)</td><td>Ar 3:15 PM</td><td></td></tr>
</table>
</body></html>`

func TestTimetableParser_Rows(t *testing.T) {
	records, err := TimetableParser{}.Parse([]byte(timetablePage), "4")
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "LAX", records[0].Code)
	assert.Equal(t, "Los Angeles, CA", records[0].Name)
	assert.Equal(t, "Dp", records[0].Marker)
	assert.Equal(t, "6:00 PM", records[0].Scheduled)
	assert.Equal(t, "Departed: 5 minutes late", records[0].Actual)
	assert.True(t, records[0].HasActual())

	assert.Equal(t, "Departed: 10 minutes late", records[1].Actual)

	assert.Equal(t, "RIV", records[2].Code)
	assert.False(t, records[2].HasActual())

	assert.Equal(t, "Chicago Union Station, IL", records[3].Name)
	assert.Equal(t, "Ar", records[3].Marker)
	assert.Equal(t, "3:15 PM", records[3].Scheduled)
}

func TestTimetableParser_MissingContainer(t *testing.T) {
	page := `<html><body><p>Train status is temporarily unavailable.</p></body></html>`
	records, err := TimetableParser{}.Parse([]byte(page), "3")
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestTimetableParser_EmptyPayload(t *testing.T) {
	_, err := TimetableParser{}.Parse(nil, "3")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTimetableParser_HeaderOnly(t *testing.T) {
	page := `<table id="results"><tr><th>Station</th><th>Schedule</th></tr></table>`
	_, err := TimetableParser{}.Parse([]byte(page), "3")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTimetableParser_CustomSelectorAndRunAttr(t *testing.T) {
	page := `<div class="status"><table>
<tr><td>Station</td><td>Schedule</td></tr>
<tr data-run="3-17"><td>Needles, CA (NDL)</td><td>Ar 12:52 AM</td><td>Arrived: On time</td></tr>
</table></div>`
	records, err := TimetableParser{Selector: "div.status table"}.Parse([]byte(page), "3")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "3-17", records[0].RunID)
	assert.Equal(t, "Needles, CA", records[0].Name)
	assert.Equal(t, "12:52 AM", records[0].Scheduled)
}

func TestParseStationCell(t *testing.T) {
	rec := parseStationCell("  Gallup,   NM (GLP) ")
	assert.Equal(t, "GLP", rec.Code)
	assert.Equal(t, "Gallup, NM", rec.Name)

	rec = parseStationCell("Lamy (not a code)")
	assert.Equal(t, "", rec.Code)
	assert.Equal(t, "Lamy (not a code)", rec.Name)
}

func TestParseScheduledCell(t *testing.T) {
	tests := []struct {
		text, marker, scheduled string
	}{
		{"Dp 02:50P", "Dp", "02:50P"},
		{"Ar 10:30 AM", "Ar", "10:30 AM"},
		{"Dp. 4:05pm", "Dp", "4:05pm"},
		{"Ar", "Ar", ""},
		{"cancelled", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			marker, scheduled := parseScheduledCell(tt.text)
			assert.Equal(t, tt.marker, marker)
			assert.Equal(t, tt.scheduled, scheduled)
		})
	}
}
