package sample

import (
	"time"

	"github.com/nerrad567/purifier-collector/internal/device"
	"github.com/nerrad567/purifier-collector/internal/sensor"
)

// Sample is one decoded reading from one completed round trip. Samples are
// immutable once built and written exactly once.
type Sample struct {
	RecordedAt time.Time
	Serial     string

	// Location is the device's display name.
	Location string

	// AirQuality is in [1,5], 1 best.
	AirQuality  int
	Temperature float64
	Humidity    int

	// NitrogenDioxide is nil for legacy devices.
	NitrogenDioxide *float64

	Qualities sensor.Qualities
}

// New builds the sample for a reading taken from d at t.
func New(d *device.Device, r sensor.Reading, t time.Time) Sample {
	return Sample{
		RecordedAt:      t.UTC(),
		Serial:          d.Serial,
		Location:        d.Name,
		AirQuality:      r.AirQuality,
		Temperature:     r.Temperature,
		Humidity:        r.Humidity,
		NitrogenDioxide: r.NitrogenDioxide,
		Qualities:       r.Qualities,
	}
}

// particulate returns the fine-particle bucket whichever sensor produced it.
func (s Sample) particulate() int {
	if s.Qualities.PM25 != 0 {
		return s.Qualities.PM25
	}
	return s.Qualities.Dust
}

// voc returns the VOC bucket whichever sensor produced it.
func (s Sample) voc() int {
	if s.Qualities.VOC != 0 {
		return s.Qualities.VOC
	}
	return s.Qualities.LegacyVOC
}

// nullable maps an absent bucket to nil.
func nullable(q int) *int {
	if q == 0 {
		return nil
	}
	return &q
}
