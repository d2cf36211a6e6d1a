package flow

import "errors"

var (
	// ErrNoData names the empty-window state in logs. Aggregation reports it
	// as a false "found" result, never as a returned error, so that callers
	// cannot mistake it for a zero value.
	ErrNoData = errors.New("no data in window")
	// ErrInvalidPeriod is returned when a period name is not recognised.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrRenderFailure wraps failures while drawing or encoding a chart.
	ErrRenderFailure = errors.New("render failure")
)
