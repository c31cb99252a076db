package sample

import (
	"fmt"
	"time"
)

// Span is a history window together with its aggregation bucket width.
type Span struct {
	Name     string
	Lookback time.Duration
	Bucket   time.Duration
}

const day = 24 * time.Hour

var spans = map[string]Span{
	"hour":  {Name: "hour", Lookback: time.Hour, Bucket: time.Minute},
	"day":   {Name: "day", Lookback: day, Bucket: 30 * time.Minute},
	"week":  {Name: "week", Lookback: 7 * day, Bucket: time.Hour},
	"month": {Name: "month", Lookback: 30 * day, Bucket: 3 * time.Hour},
	"year":  {Name: "year", Lookback: 365 * day, Bucket: 6 * time.Hour},
}

// ParseSpan returns the span named hour, day, week, month or year.
func ParseSpan(name string) (Span, error) {
	s, ok := spans[name]
	if !ok {
		return Span{}, fmt.Errorf("%w: %q", ErrInvalidSpan, name)
	}
	return s, nil
}

// Point is one aggregated history bucket.
type Point struct {
	Time time.Time

	// AirQuality is the best (lowest) index seen in the bucket.
	AirQuality int

	Temperature     float64
	Humidity        float64
	NitrogenDioxide *float64
}
