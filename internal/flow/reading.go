package flow

import (
	"math"
	"time"
)

// Reading is a single flow-rate sample.
type Reading struct {
	Timestamp int64
	Value     float64
}

// Time returns the reading's timestamp as a UTC time.
func (r Reading) Time() time.Time {
	return time.Unix(r.Timestamp, 0).UTC()
}

// TimeRange is an inclusive [Start, End] window in epoch seconds.
type TimeRange struct {
	Start int64
	End   int64
}

// Contains reports whether ts falls inside the range, both ends included.
func (r TimeRange) Contains(ts int64) bool {
	return ts >= r.Start && ts <= r.End
}

// SelectRange returns the window covering the given period and ending at now.
func SelectRange(p Period, now time.Time) TimeRange {
	end := now.Unix()
	return TimeRange{Start: end - p.Seconds(), End: end}
}

// MaxValue returns the largest finite value in readings. The boolean is false
// when readings holds no finite value. NaN and infinite values are skipped so
// the result does not depend on input order.
func MaxValue(readings []Reading) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, r := range readings {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		if !found || r.Value > best {
			best, found = r.Value, true
		}
	}
	return best, found
}
