package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/purifier-collector/internal/sample"
)

// defaultSpan is used when no span query parameter is given.
const defaultSpan = "hour"

// spanParams are read in order; duration is accepted as a shorthand.
var spanParams = []string{"durationSpan", "duration"}

// SampleResponse is one latest-per-location reading.
type SampleResponse struct {
	Time            time.Time `json:"time"`
	Serial          string    `json:"serial"`
	Location        string    `json:"location"`
	AirQuality      int       `json:"air_quality"`
	Temperature     float64   `json:"temperature"`
	Humidity        int       `json:"humidity"`
	NitrogenDioxide *float64  `json:"nitrogen_dioxide,omitempty"`
}

// PointResponse is one aggregated history bucket.
type PointResponse struct {
	Time            time.Time `json:"time"`
	AirQuality      int       `json:"air_quality"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	NitrogenDioxide *float64  `json:"nitrogen_dioxide,omitempty"`
}

// HistoryResponse wraps a device's bucketed history.
type HistoryResponse struct {
	Serial   string          `json:"serial"`
	Duration string          `json:"duration"`
	Bucket   string          `json:"bucket"`
	Points   []PointResponse `json:"points"`
}

// handleCurrent returns the latest sample per location from the last hour.
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	samples, err := s.reader.Current(r.Context())
	if err != nil {
		s.logger.Error("reading current samples", "error", err)
		writeInternalError(w, "failed to read current samples")
		return
	}

	out := make([]SampleResponse, 0, len(samples))
	for _, smp := range samples {
		out = append(out, SampleResponse{
			Time:            smp.RecordedAt,
			Serial:          smp.Serial,
			Location:        smp.Location,
			AirQuality:      smp.AirQuality,
			Temperature:     smp.Temperature,
			Humidity:        smp.Humidity,
			NitrogenDioxide: smp.NitrogenDioxide,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"samples": out,
		"count":   len(out),
	})
}

// handleHistory returns bucketed history for one device.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	name := defaultSpan
	for _, key := range spanParams {
		if v := r.URL.Query().Get(key); v != "" {
			name = v
			break
		}
	}
	span, err := sample.ParseSpan(name)
	if err != nil {
		writeBadRequest(w, "durationSpan must be one of hour, day, week, month, year")
		return
	}

	points, err := s.reader.History(r.Context(), serial, span)
	if err != nil {
		if errors.Is(err, sample.ErrInvalidSpan) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("reading sample history", "serial", serial, "duration", span.Name, "error", err)
		writeInternalError(w, "failed to read history")
		return
	}

	resp := HistoryResponse{
		Serial:   serial,
		Duration: span.Name,
		Bucket:   span.Bucket.String(),
		Points:   make([]PointResponse, 0, len(points)),
	}
	for _, p := range points {
		resp.Points = append(resp.Points, PointResponse{
			Time:            p.Time,
			AirQuality:      p.AirQuality,
			Temperature:     p.Temperature,
			Humidity:        p.Humidity,
			NitrogenDioxide: p.NitrogenDioxide,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
