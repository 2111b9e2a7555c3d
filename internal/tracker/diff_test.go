package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"train-tracker/internal/status"
)

func TestChanged(t *testing.T) {
	eta := time.Date(2024, 6, 16, 20, 35, 0, 0, time.UTC)
	sameETA := eta.In(time.FixedZone("CDT", -5*3600))
	later := eta.Add(5 * time.Minute)
	five, alsoFive := 5, 5

	base := status.TrainStatus{TrainID: "3", InstanceID: 1, NextStation: "Naperville", Status: status.StatusOnTime, EstimatedArrival: &eta, LastUpdated: eta}

	tests := []struct {
		name     string
		previous []status.TrainStatus
		next     func() []status.TrainStatus
		want     []int
	}{
		{
			name:     "no previous publishes all",
			previous: nil,
			next: func() []status.TrainStatus {
				b := base
				b2 := base
				b2.InstanceID = 2
				return []status.TrainStatus{b, b2}
			},
			want: []int{1, 2},
		},
		{
			name:     "lastUpdated and eta zone are ignored",
			previous: []status.TrainStatus{base},
			next: func() []status.TrainStatus {
				b := base
				b.LastUpdated = eta.Add(time.Hour)
				b.EstimatedArrival = &sameETA
				return []status.TrainStatus{b}
			},
			want: nil,
		},
		{
			name:     "eta moved",
			previous: []status.TrainStatus{base},
			next: func() []status.TrainStatus {
				b := base
				b.EstimatedArrival = &later
				return []status.TrainStatus{b}
			},
			want: []int{1},
		},
		{
			name: "equal delays behind different pointers",
			previous: func() []status.TrainStatus {
				b := base
				b.DelayMinutes = &five
				return []status.TrainStatus{b}
			}(),
			next: func() []status.TrainStatus {
				b := base
				b.DelayMinutes = &alsoFive
				return []status.TrainStatus{b}
			},
			want: nil,
		},
		{
			name:     "isNext flips",
			previous: []status.TrainStatus{base},
			next: func() []status.TrainStatus {
				b := base
				b.IsNext = true
				return []status.TrainStatus{b}
			},
			want: []int{1},
		},
		{
			name:     "vanished instances are not reported",
			previous: []status.TrainStatus{base, {TrainID: "3", InstanceID: 2}},
			next:     func() []status.TrainStatus { return []status.TrainStatus{base} },
			want:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, st := range Changed(tt.previous, tt.next()) {
				got = append(got, st.InstanceID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoved(t *testing.T) {
	one := status.TrainStatus{TrainID: "3", InstanceID: 1}
	two := status.TrainStatus{TrainID: "3", InstanceID: 2}

	assert.Nil(t, Removed(nil, []status.TrainStatus{one}))
	assert.Nil(t, Removed([]status.TrainStatus{one}, []status.TrainStatus{one, two}))
	assert.Equal(t, []int{2}, Removed([]status.TrainStatus{one, two}, []status.TrainStatus{one}))
	assert.Equal(t, []int{1, 2}, Removed([]status.TrainStatus{one, two}, []status.TrainStatus{}))
}
