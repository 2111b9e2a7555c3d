package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"train-tracker/internal/route"
	"train-tracker/internal/source"
)

func TestGroup_RestartFromOriginStartsNewInstance(t *testing.T) {
	r := mustRoute(t, route.Westbound)
	records := []source.Record{
		{Name: "Chicago, IL", Actual: "Departed: On time"},
		{Name: "Naperville, IL", Actual: "Departed: 5 minutes late"},
		{Name: "Mendota, IL"},
		{Name: "Chicago, IL"},
		{Name: "Naperville, IL"},
	}
	instances := Group(records, r)
	require.Len(t, instances, 2)
	assert.Equal(t, 1, instances[0].ID)
	assert.Len(t, instances[0].Records, 3)
	assert.Equal(t, 2, instances[1].ID)
	assert.Len(t, instances[1].Records, 2)
}

func TestGroup_DuplicateRowsStayTogether(t *testing.T) {
	r := mustRoute(t, route.Westbound)
	records := []source.Record{
		{Name: "Albuquerque", Marker: "Ar", Actual: "Arrived"},
		{Name: "Albuquerque", Marker: "Dp", Actual: "Departed"},
		{Name: "Mystery Siding", Actual: "Passed"},
		{Name: "Gallup"},
	}
	instances := Group(records, r)
	require.Len(t, instances, 1)
	assert.Len(t, instances[0].Records, 4)
}

func TestGroup_ByRunID(t *testing.T) {
	r := mustRoute(t, route.Westbound)
	records := []source.Record{
		{Name: "Barstow", RunID: "3-14", Actual: "Departed"},
		{Name: "Victorville", RunID: "3-14"},
		{Name: "Chicago", RunID: "3-15"},
		{Name: "Naperville"},
	}
	instances := Group(records, r)
	require.Len(t, instances, 2)
	assert.Equal(t, "3-14", instances[0].RunID)
	assert.Len(t, instances[0].Records, 2)
	assert.Equal(t, "3-15", instances[1].RunID)
	assert.Len(t, instances[1].Records, 2)
	assert.Equal(t, "Naperville", instances[1].Records[1].Name)
}

func TestGroup_Empty(t *testing.T) {
	assert.Nil(t, Group(nil, mustRoute(t, route.Eastbound)))
}

func TestMarkNext_EarliestEnRouteArrival(t *testing.T) {
	early := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	late := early.Add(3 * time.Hour)
	instances := []Instance{
		{ID: 1, Progression: Progression{State: EnRoute}, ETA: &late},
		{ID: 2, Progression: Progression{State: NoData}},
		{ID: 3, Progression: Progression{State: EnRoute}, ETA: &early},
		{ID: 4, Progression: Progression{State: EnRoute}},
	}
	MarkNext(instances)
	assert.False(t, instances[0].IsNext)
	assert.False(t, instances[1].IsNext)
	assert.True(t, instances[2].IsNext)
	assert.False(t, instances[3].IsNext)
}

func TestMarkNext_EncounterOrderWithoutEstimates(t *testing.T) {
	instances := []Instance{
		{ID: 1, Progression: Progression{State: AtTerminal}},
		{ID: 2, Progression: Progression{State: EnRoute}},
		{ID: 3, Progression: Progression{State: EnRoute}},
	}
	MarkNext(instances)
	assert.True(t, instances[1].IsNext)
	assert.False(t, instances[2].IsNext)
}

func TestMarkNext_NoneEnRoutePicksNewest(t *testing.T) {
	instances := []Instance{
		{ID: 1, Progression: Progression{State: AtTerminal}, IsNext: true},
		{ID: 2, Progression: Progression{State: NoData}},
	}
	MarkNext(instances)
	assert.False(t, instances[0].IsNext)
	assert.True(t, instances[1].IsNext)

	MarkNext(nil)
}
