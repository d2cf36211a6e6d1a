package store

import (
	"context"
	"sort"
	"sync"

	"flowviewer/internal/flow"
)

// Memory keeps readings in a sorted slice. It backs tests and local runs.
type Memory struct {
	mu       sync.RWMutex
	readings []flow.Reading
}

func NewMemory() *Memory {
	return &Memory{}
}

// Append adds readings, keeping the series ordered by timestamp.
func (m *Memory) Append(readings ...flow.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, readings...)
	sort.SliceStable(m.readings, func(i, j int) bool {
		return m.readings[i].Timestamp < m.readings[j].Timestamp
	})
}

func (m *Memory) QueryRange(_ context.Context, r flow.TimeRange) ([]flow.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lo := sort.Search(len(m.readings), func(i int) bool { return m.readings[i].Timestamp >= r.Start })
	hi := sort.Search(len(m.readings), func(i int) bool { return m.readings[i].Timestamp > r.End })
	out := make([]flow.Reading, 0)
	if lo < hi {
		out = append(out, m.readings[lo:hi]...)
	}
	return out, nil
}

func (m *Memory) MaxInRange(ctx context.Context, r flow.TimeRange) (float64, bool, error) {
	readings, err := m.QueryRange(ctx, r)
	if err != nil {
		return 0, false, err
	}
	v, ok := flow.MaxValue(readings)
	return v, ok, nil
}

func (m *Memory) Latest(_ context.Context) (flow.Reading, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.readings) == 0 {
		return flow.Reading{}, false, nil
	}
	return m.readings[len(m.readings)-1], true, nil
}

func (m *Memory) Close() error {
	return nil
}
