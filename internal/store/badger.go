package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"

	"flowviewer/internal/flow"
)

const keyPrefix = "flow/"

// Badger keeps readings in an embedded BadgerDB. Keys sort by timestamp so
// range reads are a single forward iteration.
type Badger struct {
	db *badger.DB
}

// NewBadger opens the database at path. An empty path keeps everything in
// memory.
func NewBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &Badger{db: db}, nil
}

// encodeKey flips the sign bit so negative timestamps sort before positive
// ones, and appends the value bits so equal timestamps do not collide.
func encodeKey(r flow.Reading) []byte {
	key := make([]byte, len(keyPrefix)+16)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], uint64(r.Timestamp)^(1<<63))
	binary.BigEndian.PutUint64(key[len(keyPrefix)+8:], math.Float64bits(r.Value))
	return key
}

func timestampKey(ts int64) []byte {
	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], uint64(ts)^(1<<63))
	return key
}

func decodeKey(key []byte) (flow.Reading, error) {
	if len(key) != len(keyPrefix)+16 {
		return flow.Reading{}, fmt.Errorf("malformed reading key of %d bytes", len(key))
	}
	ts := int64(binary.BigEndian.Uint64(key[len(keyPrefix):]) ^ (1 << 63))
	v := math.Float64frombits(binary.BigEndian.Uint64(key[len(keyPrefix)+8:]))
	return flow.Reading{Timestamp: ts, Value: v}, nil
}

// Append writes readings in a single transaction.
func (s *Badger) Append(readings ...flow.Reading) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, r := range readings {
			if err := txn.Set(encodeKey(r), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Badger) QueryRange(ctx context.Context, r flow.TimeRange) ([]flow.Reading, error) {
	readings := make([]flow.Reading, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(timestampKey(r.Start)); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			reading, err := decodeKey(it.Item().KeyCopy(nil))
			if err != nil {
				return err
			}
			if reading.Timestamp > r.End {
				break
			}
			readings = append(readings, reading)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read badger range: %w", err)
	}
	return readings, nil
}

func (s *Badger) MaxInRange(ctx context.Context, r flow.TimeRange) (float64, bool, error) {
	readings, err := s.QueryRange(ctx, r)
	if err != nil {
		return 0, false, err
	}
	v, ok := flow.MaxValue(readings)
	return v, ok, nil
}

func (s *Badger) Latest(_ context.Context) (flow.Reading, bool, error) {
	var (
		latest flow.Reading
		found  bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// reverse seek lands on the last key at or below the given one
		seek := append([]byte(keyPrefix), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		it.Seek(seek)
		if !it.ValidForPrefix([]byte(keyPrefix)) {
			return nil
		}
		reading, err := decodeKey(it.Item().KeyCopy(nil))
		if err != nil {
			return err
		}
		latest, found = reading, true
		return nil
	})
	if err != nil {
		return flow.Reading{}, false, fmt.Errorf("read badger latest: %w", err)
	}
	return latest, found, nil
}

func (s *Badger) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
