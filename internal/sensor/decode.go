package sensor

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/purifier-collector/internal/device"
)

// Raw field names in the ENVIRONMENTAL-CURRENT-SENSOR-DATA payload.
const (
	FieldTemperature = "tact"
	FieldHumidity    = "hact"
	FieldPM25        = "pm25"
	FieldPM10        = "pm10"
	FieldVOC         = "va10"
	FieldNO2         = "noxl"
	FieldDust        = "pact"
	FieldLegacyVOC   = "vact"
)

// Sentinel is reported for sensors that are not initialised yet.
const Sentinel = "INIT"

// vocScale converts raw VOC readings to the index used by the VOC bounds.
const vocScale = 0.125

var (
	pm25Bounds = []float64{35, 53, 70, 150}
	pm10Bounds = []float64{50, 75, 100, 350}
	vocBounds  = []float64{3, 6, 8}
	no2Bounds  = []float64{30, 60, 80, 90}
)

const (
	minQuality = 1
	maxQuality = 5
)

// Qualities holds the per-sensor buckets that fed AirQuality.
// Sensors not present on the generation are 0.
type Qualities struct {
	PM25      int
	PM10      int
	VOC       int
	NO2       int
	Dust      int
	LegacyVOC int
}

// Reading is a decoded sensor payload.
type Reading struct {
	// Temperature in degrees Celsius rounded to 0.1. Zero when unavailable.
	Temperature float64

	// Humidity in integer percent.
	Humidity int

	// AirQuality is in [1,5], 1 best.
	AirQuality int

	// NitrogenDioxide is the raw NO2 density, nil for legacy devices.
	NitrogenDioxide *float64

	Qualities Qualities
}

// Decode converts raw sensor fields for a device of the given generation.
func Decode(data map[string]json.RawMessage, gen device.Generation) Reading {
	r := Reading{
		Temperature: Temperature(Value(data, FieldTemperature)),
		Humidity:    int(Value(data, FieldHumidity)),
	}

	var worst int
	if gen == device.Advanced {
		no2 := Value(data, FieldNO2)
		r.Qualities = Qualities{
			PM25: Bucket(Value(data, FieldPM25), pm25Bounds),
			PM10: Bucket(Value(data, FieldPM10), pm10Bounds),
			VOC:  Bucket(Value(data, FieldVOC)*vocScale, vocBounds),
			NO2:  Bucket(no2, no2Bounds),
		}
		r.NitrogenDioxide = &no2
		worst = max(r.Qualities.PM25, r.Qualities.PM10, r.Qualities.VOC, r.Qualities.NO2)
	} else {
		r.Qualities = Qualities{
			Dust:      Bucket(Value(data, FieldDust), pm25Bounds),
			LegacyVOC: Bucket(Value(data, FieldLegacyVOC)*vocScale, vocBounds),
		}
		worst = max(r.Qualities.Dust, r.Qualities.LegacyVOC)
	}

	r.AirQuality = min(max(worst, minQuality), maxQuality)
	return r
}

// Temperature converts a raw tact reading (tenths of a kelvin) to Celsius
// rounded to one decimal. A zero reading means the sensor had no value.
func Temperature(tact float64) float64 {
	if tact == 0 {
		return 0
	}
	return math.Round((tact/10-273)*10) / 10
}

// Bucket returns the 1-based index of the first inclusive upper bound that
// v does not exceed, or len(bounds)+1.
func Bucket(v float64, bounds []float64) int {
	for i, b := range bounds {
		if v <= b {
			return i + 1
		}
	}
	return len(bounds) + 1
}

// Value extracts a numeric field. Missing fields, the sentinel and any
// unparseable value yield 0.
func Value(data map[string]json.RawMessage, field string) float64 {
	raw, ok := data[field]
	if !ok || len(raw) == 0 {
		return 0
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return finite(num)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	if s == "" || s == Sentinel {
		return 0
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(num)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
