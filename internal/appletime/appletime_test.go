package appletime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectScale(t *testing.T) {
	tests := []struct {
		name   string
		maxRaw int64
		label  string
	}{
		{"empty store defaults to seconds", 0, "seconds"},
		{"small values are seconds", 7e8, "seconds"},
		{"just below millis floor", 1e11 - 1, "seconds"},
		{"millis floor", 1e11, "milliseconds"},
		{"just below micros floor", 1e14 - 1, "milliseconds"},
		{"micros floor", 1e14, "microseconds"},
		{"just below nanos floor", 1e17 - 1, "microseconds"},
		{"nanos floor", 1e17, "nanoseconds"},
		{"modern store value", 777000000000000000, "nanoseconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.label, DetectScale(tt.maxRaw).Label)
		})
	}
}

func TestToTime(t *testing.T) {
	secs := DetectScale(0)
	assert.Equal(t, Epoch, secs.ToTime(0))
	assert.Equal(t,
		time.Date(2001, 1, 1, 0, 1, 0, 0, time.UTC),
		secs.ToTime(60))

	nanos := DetectScale(1e17)
	assert.Equal(t,
		time.Date(2001, 1, 1, 0, 0, 1, 500000000, time.UTC),
		nanos.ToTime(1500000000))
}

func TestRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 15, 12, 30, 45, 0, time.UTC)
	for _, maxRaw := range []int64{0, 1e11, 1e14, 1e17} {
		s := DetectScale(maxRaw)
		assert.Equal(t, at, s.ToTime(s.FromTime(at)), s.Label)
	}
}

func TestDeltas(t *testing.T) {
	nanos := DetectScale(1e17)
	assert.Equal(t, 90.0, nanos.Seconds(90e9))
	assert.Equal(t, 1.5, nanos.Minutes(90e9))

	secs := DetectScale(0)
	assert.Equal(t, 90.0, secs.Seconds(90))
}
