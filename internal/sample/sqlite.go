package sample

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/purifier-collector/internal/infrastructure/database"
)

// SQLiteStore keeps samples in the samples table created by the embedded
// migrations.
type SQLiteStore struct {
	db  *database.DB
	now func() time.Time
}

// NewSQLiteStore returns a store over a migrated database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// HealthCheck reports whether the database still answers queries.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

const sqliteInsert = `
	INSERT INTO samples (
		recorded_at, serial, location, air_quality, temperature, humidity,
		nitrogen_dioxide, pm25_quality, pm10_quality, voc_quality, no2_quality
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Write inserts one row.
func (s *SQLiteStore) Write(ctx context.Context, smp Sample) error {
	res, err := s.db.ExecContext(ctx, sqliteInsert,
		smp.RecordedAt.Unix(),
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
	return expectOne(res.RowsAffected())
}

// expectOne checks a driver's rows-affected result.
func expectOne(n int64, err error) error {
	if err != nil {
		return fmt.Errorf("%w: reading rows affected: %w", ErrPersistence, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: %d rows affected", ErrPersistence, n)
	}
	return nil
}

// SQLite returns the bare columns of the row holding MAX(recorded_at).
const sqliteCurrent = `
	SELECT MAX(recorded_at), serial, location, air_quality, temperature, humidity,
		nitrogen_dioxide, pm25_quality, pm10_quality, voc_quality, no2_quality
	FROM samples
	WHERE recorded_at >= ?
	GROUP BY location
	ORDER BY location`

// Current returns the latest sample per location from the last hour.
func (s *SQLiteStore) Current(ctx context.Context) ([]Sample, error) {
	since := s.now().Add(-currentWindow).Unix()

	rows, err := s.db.QueryContext(ctx, sqliteCurrent, since)
	if err != nil {
		return nil, fmt.Errorf("querying current samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			smp                  Sample
			at                   int64
			pm25, pm10, voc, no2 sql.NullInt64
		)
		if err := rows.Scan(&at, &smp.Serial, &smp.Location, &smp.AirQuality, &smp.Temperature,
			&smp.Humidity, &smp.NitrogenDioxide, &pm25, &pm10, &voc, &no2); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		smp.RecordedAt = time.Unix(at, 0).UTC()
		smp.Qualities.PM25 = int(pm25.Int64)
		smp.Qualities.PM10 = int(pm10.Int64)
		smp.Qualities.VOC = int(voc.Int64)
		smp.Qualities.NO2 = int(no2.Int64)
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return out, nil
}

const sqliteHistory = `
	SELECT (recorded_at / ?) * ? AS bucket,
		MIN(air_quality), AVG(temperature), AVG(humidity), AVG(nitrogen_dioxide)
	FROM samples
	WHERE serial = ? AND recorded_at >= ?
	GROUP BY bucket
	ORDER BY bucket`

// History aggregates one device's samples into span buckets.
func (s *SQLiteStore) History(ctx context.Context, serial string, span Span) ([]Point, error) {
	width := int64(span.Bucket / time.Second)
	since := s.now().Add(-span.Lookback).Unix()

	rows, err := s.db.QueryContext(ctx, sqliteHistory, width, width, serial, since)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var (
			p      Point
			bucket int64
		)
		if err := rows.Scan(&bucket, &p.AirQuality, &p.Temperature, &p.Humidity, &p.NitrogenDioxide); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		p.Time = time.Unix(bucket, 0).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}
