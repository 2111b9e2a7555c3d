package tracker

import (
	"time"

	"train-tracker/internal/status"
)

// Changed returns the statuses in next that are new or differ from the same instance in previous.
// lastUpdated is ignored since it moves on every pass.
func Changed(previous, next []status.TrainStatus) []status.TrainStatus {
	byInstance := make(map[int]status.TrainStatus, len(previous))
	for _, st := range previous {
		byInstance[st.InstanceID] = st
	}
	var out []status.TrainStatus
	for _, st := range next {
		prev, ok := byInstance[st.InstanceID]
		if !ok || !sameStatus(prev, st) {
			out = append(out, st)
		}
	}
	return out
}

// Removed returns the instance ids present in previous but absent from next.
func Removed(previous, next []status.TrainStatus) []int {
	present := make(map[int]bool, len(next))
	for _, st := range next {
		present[st.InstanceID] = true
	}
	var out []int
	for _, st := range previous {
		if !present[st.InstanceID] {
			out = append(out, st.InstanceID)
		}
	}
	return out
}

func sameStatus(a, b status.TrainStatus) bool {
	return a.TrainID == b.TrainID &&
		a.Direction == b.Direction &&
		a.CurrentLocation == b.CurrentLocation &&
		a.NextStation == b.NextStation &&
		sameTime(a.EstimatedArrival, b.EstimatedArrival) &&
		a.Status == b.Status &&
		sameInt(a.DelayMinutes, b.DelayMinutes) &&
		a.Departed == b.Departed &&
		a.Timezone == b.Timezone &&
		a.IsNext == b.IsNext
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
