package sample

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nerrad567/purifier-collector/internal/infrastructure/config"
)

// pgxQuerier is the subset of *pgxpool.Pool the store uses.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TimescaleStore keeps samples in the purifier_samples hypertable.
type TimescaleStore struct {
	pool pgxQuerier
	now  func() time.Time
}

// NewTimescalePool dials TimescaleDB.
func NewTimescalePool(ctx context.Context, cfg config.TimescaleConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("timescale: failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "purifier-collector"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("timescale: failed to initialize pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("timescale: ping failed: %w", err)
	}
	return pool, nil
}

// NewTimescaleStore returns a store over pool.
func NewTimescaleStore(pool *pgxpool.Pool) *TimescaleStore {
	return &TimescaleStore{pool: pool, now: time.Now}
}

var timescaleSchema = []string{
	`CREATE TABLE IF NOT EXISTS purifier_samples (
		recorded_at      TIMESTAMPTZ      NOT NULL,
		serial           TEXT             NOT NULL,
		location         TEXT             NOT NULL,
		air_quality      SMALLINT         NOT NULL CHECK (air_quality BETWEEN 1 AND 5),
		temperature      DOUBLE PRECISION NOT NULL,
		humidity         SMALLINT         NOT NULL,
		nitrogen_dioxide DOUBLE PRECISION,
		pm25_quality     SMALLINT,
		pm10_quality     SMALLINT,
		voc_quality      SMALLINT,
		no2_quality      SMALLINT
	)`,
	`SELECT create_hypertable('purifier_samples', 'recorded_at', if_not_exists => TRUE)`,
	`CREATE INDEX IF NOT EXISTS purifier_samples_serial_time ON purifier_samples (serial, recorded_at DESC)`,
}

// EnsureSchema creates the hypertable if it does not exist.
func (s *TimescaleStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range timescaleSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("timescale: ensuring schema: %w", err)
		}
	}
	return nil
}

const timescaleInsert = `
	INSERT INTO purifier_samples (
		recorded_at, serial, location, air_quality, temperature, humidity,
		nitrogen_dioxide, pm25_quality, pm10_quality, voc_quality, no2_quality
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Write inserts one row.
func (s *TimescaleStore) Write(ctx context.Context, smp Sample) error {
	tag, err := s.pool.Exec(ctx, timescaleInsert,
		smp.RecordedAt,
		smp.Serial,
		smp.Location,
		smp.AirQuality,
		smp.Temperature,
		smp.Humidity,
		smp.NitrogenDioxide,
		nullable(smp.particulate()),
		nullable(smp.Qualities.PM10),
		nullable(smp.voc()),
		nullable(smp.Qualities.NO2),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return expectOne(tag.RowsAffected(), nil)
}

const timescaleCurrent = `
	SELECT DISTINCT ON (location)
		recorded_at, serial, location, air_quality, temperature, humidity, nitrogen_dioxide
	FROM purifier_samples
	WHERE recorded_at >= $1
	ORDER BY location, recorded_at DESC`

// Current returns the latest sample per location from the last hour.
func (s *TimescaleStore) Current(ctx context.Context) ([]Sample, error) {
	rows, err := s.pool.Query(ctx, timescaleCurrent, s.now().Add(-currentWindow))
	if err != nil {
		return nil, fmt.Errorf("querying current samples: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Sample, error) {
		var (
			smp      Sample
			air, hum int16
		)
		err := row.Scan(&smp.RecordedAt, &smp.Serial, &smp.Location, &air, &smp.Temperature, &hum, &smp.NitrogenDioxide)
		smp.AirQuality = int(air)
		smp.Humidity = int(hum)
		smp.RecordedAt = smp.RecordedAt.UTC()
		return smp, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning current samples: %w", err)
	}
	return out, nil
}

const timescaleHistory = `
	SELECT time_bucket($1::interval, recorded_at) AS bucket,
		min(air_quality), avg(temperature), avg(humidity), avg(nitrogen_dioxide)
	FROM purifier_samples
	WHERE serial = $2 AND recorded_at >= $3
	GROUP BY bucket
	ORDER BY bucket`

// History aggregates one device's samples into span buckets.
func (s *TimescaleStore) History(ctx context.Context, serial string, span Span) ([]Point, error) {
	rows, err := s.pool.Query(ctx, timescaleHistory, span.Bucket, serial, s.now().Add(-span.Lookback))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Point, error) {
		var (
			p   Point
			air int16
		)
		err := row.Scan(&p.Time, &air, &p.Temperature, &p.Humidity, &p.NitrogenDioxide)
		p.AirQuality = int(air)
		p.Time = p.Time.UTC()
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning history: %w", err)
	}
	return out, nil
}
