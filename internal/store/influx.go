package store

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"

	"flowviewer/internal/config"
	"flowviewer/internal/flow"
)

// Influx reads readings from an InfluxDB 2 bucket.
type Influx struct {
	client influxdb2.Client
	cfg    config.InfluxConfig
}

func NewInflux(cfg config.InfluxConfig) *Influx {
	return &Influx{
		client: influxdb2.NewClient(cfg.URL, cfg.Token),
		cfg:    cfg,
	}
}

// rangeClause selects the window. Flux treats stop as exclusive, so it is
// pushed one second past the inclusive end.
func rangeClause(cfg config.InfluxConfig, r flow.TimeRange) string {
	start := time.Unix(r.Start, 0).UTC().Format(time.RFC3339)
	stop := time.Unix(r.End+1, 0).UTC().Format(time.RFC3339)
	return fmt.Sprintf(`
		from(bucket: %q)
		|> range(start: %s, stop: %s)
		|> filter(fn: (r) => r._measurement == %q and r._field == %q)`,
		cfg.Bucket, start, stop, cfg.Measurement, cfg.Field)
}

// rangeQuery merges every series (one per tag set) into a single table before
// sorting, otherwise rows come back ordered only within each table.
func rangeQuery(cfg config.InfluxConfig, r flow.TimeRange) string {
	return rangeClause(cfg, r) + `
		|> group()
		|> sort(columns: ["_time"])`
}

func maxQuery(cfg config.InfluxConfig, r flow.TimeRange) string {
	return rangeClause(cfg, r) + `
		|> group()
		|> max()`
}

func latestQuery(cfg config.InfluxConfig) string {
	return fmt.Sprintf(`
		from(bucket: %q)
		|> range(start: 0)
		|> filter(fn: (r) => r._measurement == %q and r._field == %q)
		|> group()
		|> last()`, cfg.Bucket, cfg.Measurement, cfg.Field)
}

func (s *Influx) QueryRange(ctx context.Context, r flow.TimeRange) ([]flow.Reading, error) {
	return s.run(ctx, rangeQuery(s.cfg, r))
}

func (s *Influx) MaxInRange(ctx context.Context, r flow.TimeRange) (float64, bool, error) {
	readings, err := s.run(ctx, maxQuery(s.cfg, r))
	if err != nil {
		return 0, false, err
	}
	v, ok := flow.MaxValue(readings)
	return v, ok, nil
}

func (s *Influx) Latest(ctx context.Context) (flow.Reading, bool, error) {
	readings, err := s.run(ctx, latestQuery(s.cfg))
	if err != nil {
		return flow.Reading{}, false, err
	}
	if len(readings) == 0 {
		return flow.Reading{}, false, nil
	}
	return readings[len(readings)-1], true, nil
}

func (s *Influx) run(ctx context.Context, query string) ([]flow.Reading, error) {
	logrus.Tracef("Running query=%s", query)
	result, err := s.client.QueryAPI(s.cfg.Org).Query(ctx, query)
	if err != nil {
		logrus.Warnf("Failed to execute query: %v", err)
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer result.Close()
	return collect(result)
}

func collect(result *api.QueryTableResult) ([]flow.Reading, error) {
	readings := []flow.Reading{}
	for result.Next() {
		record := result.Record()
		if v, ok := record.Value().(float64); ok {
			readings = append(readings, flow.Reading{
				Timestamp: record.Time().Unix(),
				Value:     v,
			})
		}
	}
	if result.Err() != nil {
		logrus.Warnf("Query result error: %v", result.Err())
		return nil, fmt.Errorf("error parsing Influx result: %w", result.Err())
	}
	return readings, nil
}

func (s *Influx) Close() error {
	s.client.Close()
	return nil
}
