package sample

import (
	"context"
	"fmt"
	"time"
)

// pointWriter is the subset of *influxdb.Client the store uses.
type pointWriter interface {
	WritePoint(ctx context.Context, tags map[string]string, fields map[string]any, timestamp time.Time) error
}

// InfluxStore writes one point per sample.
type InfluxStore struct {
	client pointWriter
}

// NewInfluxStore returns a store over an influxdb client.
func NewInfluxStore(client pointWriter) *InfluxStore {
	return &InfluxStore{client: client}
}

// Write sends the sample as a single point tagged by serial and location.
func (s *InfluxStore) Write(ctx context.Context, smp Sample) error {
	fields := map[string]any{
		"air_quality": smp.AirQuality,
		"temperature": smp.Temperature,
		"humidity":    smp.Humidity,
	}
	if smp.NitrogenDioxide != nil {
		fields["nitrogen_dioxide"] = *smp.NitrogenDioxide
	}
	for name, q := range map[string]int{
		"pm25_quality": smp.particulate(),
		"pm10_quality": smp.Qualities.PM10,
		"voc_quality":  smp.voc(),
		"no2_quality":  smp.Qualities.NO2,
	} {
		if q != 0 {
			fields[name] = q
		}
	}

	tags := map[string]string{
		"serial":   smp.Serial,
		"location": smp.Location,
	}
	if err := s.client.WritePoint(ctx, tags, fields, smp.RecordedAt); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
