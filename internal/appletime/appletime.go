// Package appletime converts between the message store's native
// timestamps and time.Time. Raw values are integer offsets from the
// Apple reference epoch (2001-01-01T00:00:00Z); the unit varies by
// store version and is inferred from magnitude alone.
package appletime

import "time"

// Epoch is the reference instant all raw store timestamps are
// offsets from.
var Epoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Scale describes a detected timestamp unit.
type Scale struct {
	Divisor int64  // raw units per second
	Label   string // "seconds", "milliseconds", ...
}

// Detection thresholds, compared against the maximum raw timestamp
// observed in the store.
const (
	nanosFloor  = int64(1e17)
	microsFloor = int64(1e14)
	millisFloor = int64(1e11)
)

// DetectScale infers the timestamp unit from the magnitude of the
// largest raw value in the store. A store with no messages (max 0)
// defaults to seconds.
func DetectScale(maxRaw int64) Scale {
	switch {
	case maxRaw >= nanosFloor:
		return Scale{Divisor: 1e9, Label: "nanoseconds"}
	case maxRaw >= microsFloor:
		return Scale{Divisor: 1e6, Label: "microseconds"}
	case maxRaw >= millisFloor:
		return Scale{Divisor: 1e3, Label: "milliseconds"}
	default:
		return Scale{Divisor: 1, Label: "seconds"}
	}
}

// ToTime converts a raw store timestamp to UTC time.
func (s Scale) ToTime(raw int64) time.Time {
	secs := raw / s.Divisor
	rem := raw % s.Divisor
	nanos := rem * (int64(time.Second) / s.Divisor)
	return Epoch.Add(time.Duration(secs)*time.Second + time.Duration(nanos))
}

// FromTime converts a time.Time to a raw store timestamp.
func (s Scale) FromTime(t time.Time) int64 {
	d := t.UTC().Sub(Epoch)
	return d.Nanoseconds() / (int64(time.Second) / s.Divisor)
}

// Seconds converts a raw delta (difference of two raw timestamps)
// to seconds.
func (s Scale) Seconds(rawDelta int64) float64 {
	return float64(rawDelta) / float64(s.Divisor)
}

// Minutes converts a raw delta to minutes.
func (s Scale) Minutes(rawDelta int64) float64 {
	return s.Seconds(rawDelta) / 60
}
