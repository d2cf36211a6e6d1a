package server

import (
	"math/rand/v2"
	"time"

	"flowviewer/internal/flow"
)

const (
	syntheticDays       = 10
	syntheticMaxValue   = 1000
	syntheticTimeFormat = "%Y-%m-%d"
)

// SyntheticReadings returns one reading per day for ten days starting at now,
// each with a random whole value in [0, 1000].
func SyntheticReadings(rng *rand.Rand, now time.Time) []flow.Reading {
	readings := make([]flow.Reading, 0, syntheticDays)
	ts := now.Unix()
	for i := 0; i < syntheticDays; i++ {
		readings = append(readings, flow.Reading{
			Timestamp: ts,
			Value:     float64(rng.IntN(syntheticMaxValue + 1)),
		})
		ts += int64(24 * time.Hour / time.Second)
	}
	return readings
}
