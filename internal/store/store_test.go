package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"flowviewer/internal/config"
	"flowviewer/internal/flow"
)

type seedableStore interface {
	Store
	seed(t *testing.T, readings ...flow.Reading)
}

type memoryUnderTest struct{ *Memory }

func (m memoryUnderTest) seed(_ *testing.T, readings ...flow.Reading) {
	m.Append(readings...)
}

type badgerUnderTest struct{ *Badger }

func (b badgerUnderTest) seed(t *testing.T, readings ...flow.Reading) {
	require.NoError(t, b.Append(readings...))
}

func backends(t *testing.T) map[string]func() seedableStore {
	return map[string]func() seedableStore{
		"memory": func() seedableStore { return memoryUnderTest{NewMemory()} },
		"badger": func() seedableStore {
			b, err := NewBadger("")
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			return badgerUnderTest{b}
		},
	}
}

func TestStoreQueryRangeInclusiveAndOrdered(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			s.seed(t,
				flow.Reading{Timestamp: 130, Value: 4},
				flow.Reading{Timestamp: 90, Value: 1},
				flow.Reading{Timestamp: 100, Value: 2},
				flow.Reading{Timestamp: 160, Value: 6},
				flow.Reading{Timestamp: 161, Value: 9},
			)

			got, err := s.QueryRange(context.Background(), flow.TimeRange{Start: 100, End: 160})
			require.NoError(t, err)
			require.Equal(t, []flow.Reading{
				{Timestamp: 100, Value: 2},
				{Timestamp: 130, Value: 4},
				{Timestamp: 160, Value: 6},
			}, got)
		})
	}
}

func TestStoreMaxInRange(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			_, ok, err := s.MaxInRange(context.Background(), flow.TimeRange{Start: 0, End: 1000})
			require.NoError(t, err)
			require.False(t, ok)

			s.seed(t,
				flow.Reading{Timestamp: 10, Value: 5},
				flow.Reading{Timestamp: 20, Value: 9},
				flow.Reading{Timestamp: 30, Value: 3},
				flow.Reading{Timestamp: 2000, Value: 50},
			)
			v, ok, err := s.MaxInRange(context.Background(), flow.TimeRange{Start: 0, End: 1000})
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, 9.0, v)
		})
	}
}

func TestStoreMaxInRangeSkipsNonFinite(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			s.seed(t,
				flow.Reading{Timestamp: 100, Value: math.NaN()},
				flow.Reading{Timestamp: 110, Value: 3},
				flow.Reading{Timestamp: 120, Value: math.Inf(1)},
			)

			v, ok, err := s.MaxInRange(context.Background(), flow.TimeRange{Start: 100, End: 120})
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, 3.0, v)

			_, ok, err = s.MaxInRange(context.Background(), flow.TimeRange{Start: 100, End: 100})
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreLatest(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			_, ok, err := s.Latest(context.Background())
			require.NoError(t, err)
			require.False(t, ok)

			s.seed(t,
				flow.Reading{Timestamp: 300, Value: 7},
				flow.Reading{Timestamp: -50, Value: 1},
				flow.Reading{Timestamp: 100, Value: 2},
			)
			latest, ok, err := s.Latest(context.Background())
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, flow.Reading{Timestamp: 300, Value: 7}, latest)
		})
	}
}

func TestBadgerKeyOrdering(t *testing.T) {
	neg := encodeKey(flow.Reading{Timestamp: -1, Value: 1})
	zero := encodeKey(flow.Reading{Timestamp: 0, Value: 1})
	pos := encodeKey(flow.Reading{Timestamp: 1, Value: 1})
	require.Less(t, string(neg), string(zero))
	require.Less(t, string(zero), string(pos))

	r, err := decodeKey(neg)
	require.NoError(t, err)
	require.Equal(t, flow.Reading{Timestamp: -1, Value: 1}, r)

	_, err = decodeKey([]byte("flow/short"))
	require.Error(t, err)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Backend: "cassandra"})
	require.Error(t, err)
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, s)
	require.NoError(t, s.Close())
}
