package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix   string
		trainID  string
		instance int
		want     string
	}{
		{"trains", "3", 1, "trains.3.1"},
		{"amtrak.trains", "4", 2, "amtrak.trains.4.2"},
		{" trains. ", "4", 1, "trains.4.1"},
		{"", "3", 1, "3.1"},
		{"trains", "3*", 1, "trains.3_.1"},
		{"trains", "", 3, "trains._.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Subject(tt.prefix, tt.trainID, tt.instance), "prefix=%q train=%q", tt.prefix, tt.trainID)
	}
}

func TestSubjectToken(t *testing.T) {
	assert.Equal(t, "Los_Angeles", subjectToken(" Los Angeles "))
	assert.Equal(t, "a_b_c", subjectToken("a.b>c"))
	assert.Equal(t, "_", subjectToken("   "))
}
