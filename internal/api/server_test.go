package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nerrad567/purifier-collector/internal/collector"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/config"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/logging"
	"github.com/nerrad567/purifier-collector/internal/sample"
)

type staticStats collector.Stats

func (s staticStats) Stats() collector.Stats { return collector.Stats(s) }

// testServer creates a Server backed by a mock reader.
func testServer(t *testing.T, stats StatsSource) (*Server, *sample.MockReader) {
	t.Helper()

	ctrl := gomock.NewController(t)
	reader := sample.NewMockReader(ctrl)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Logger:  logging.Discard(),
		Reader:  reader,
		Stats:   stats,
		Version: "test",
	})
	require.NoError(t, err)
	return srv, reader
}

func do(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{Reader: sample.NewMockReader(gomock.NewController(t))})
	assert.Error(t, err, "missing logger")

	_, err = New(Deps{Logger: logging.Discard()})
	assert.Error(t, err, "missing reader")
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

type checkedReader struct {
	*sample.MockReader
	err error
}

func (c checkedReader) HealthCheck(context.Context) error { return c.err }

func TestHealth_Storage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantStatus  string
		wantStorage string
	}{
		{name: "healthy", wantCode: http.StatusOK, wantStatus: "ok", wantStorage: "ok"},
		{name: "failing", err: errors.New("disk I/O error"), wantCode: http.StatusServiceUnavailable, wantStatus: "degraded", wantStorage: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := New(Deps{
				Logger:  logging.Discard(),
				Reader:  checkedReader{MockReader: sample.NewMockReader(gomock.NewController(t)), err: tt.err},
				Version: "test",
			})
			require.NoError(t, err)

			rec := do(t, srv, http.MethodGet, "/api/v1/health")

			require.Equal(t, tt.wantCode, rec.Code)
			var body map[string]any
			decode(t, rec, &body)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, tt.wantStorage, body["storage"])
		})
	}
}

func TestRequestID_Preserved(t *testing.T) {
	srv, _ := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	assert.Equal(t, "abc123", rec.Header().Get("X-Request-ID"))
}

func TestCurrent(t *testing.T) {
	srv, reader := testServer(t, nil)
	no2 := 14.0
	at := time.Date(2026, 3, 1, 11, 55, 0, 0, time.UTC)
	reader.EXPECT().Current(gomock.Any()).Return([]sample.Sample{
		{RecordedAt: at, Serial: "A", Location: "Lounge", AirQuality: 1, Temperature: 21.3, Humidity: 41},
		{RecordedAt: at, Serial: "B", Location: "Bedroom", AirQuality: 3, Temperature: 19.8, Humidity: 55, NitrogenDioxide: &no2},
	}, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/sensors/current")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Samples []SampleResponse `json:"samples"`
		Count   int              `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Lounge", body.Samples[0].Location)
	assert.Nil(t, body.Samples[0].NitrogenDioxide)
	require.NotNil(t, body.Samples[1].NitrogenDioxide)
	assert.Equal(t, 14.0, *body.Samples[1].NitrogenDioxide)
}

func TestCurrent_Empty(t *testing.T) {
	srv, reader := testServer(t, nil)
	reader.EXPECT().Current(gomock.Any()).Return(nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/sensors/current")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"samples":[],"count":0}`, rec.Body.String())
}

func TestCurrent_ReaderError(t *testing.T) {
	srv, reader := testServer(t, nil)
	reader.EXPECT().Current(gomock.Any()).Return(nil, errors.New("disk gone"))

	rec := do(t, srv, http.MethodGet, "/api/v1/sensors/current")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body Error
	decode(t, rec, &body)
	assert.Equal(t, ErrCodeInternal, body.Code)
	assert.NotContains(t, body.Message, "disk gone")
}

func TestHistory(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantSpan   string
		wantBucket string
	}{
		{name: "default is hour", query: "", wantSpan: "hour", wantBucket: "1m0s"},
		{name: "day", query: "?durationSpan=day", wantSpan: "day", wantBucket: "30m0s"},
		{name: "duration shorthand", query: "?duration=week", wantSpan: "week", wantBucket: "1h0m0s"},
		{name: "durationSpan wins", query: "?durationSpan=month&duration=hour", wantSpan: "month", wantBucket: "3h0m0s"},
		{name: "week", query: "?durationSpan=week", wantSpan: "week", wantBucket: "1h0m0s"},
		{name: "month", query: "?durationSpan=month", wantSpan: "month", wantBucket: "3h0m0s"},
		{name: "year", query: "?durationSpan=year", wantSpan: "year", wantBucket: "6h0m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, reader := testServer(t, nil)
			at := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
			reader.EXPECT().History(gomock.Any(), "NK6-EU-MHA0000B", gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, span sample.Span) ([]sample.Point, error) {
					assert.Equal(t, tt.wantSpan, span.Name)
					return []sample.Point{{Time: at, AirQuality: 2, Temperature: 20.5, Humidity: 44.5}}, nil
				})

			rec := do(t, srv, http.MethodGet, "/api/v1/sensors/NK6-EU-MHA0000B"+tt.query)

			require.Equal(t, http.StatusOK, rec.Code)
			var body HistoryResponse
			decode(t, rec, &body)
			assert.Equal(t, "NK6-EU-MHA0000B", body.Serial)
			assert.Equal(t, tt.wantSpan, body.Duration)
			assert.Equal(t, tt.wantBucket, body.Bucket)
			require.Len(t, body.Points, 1)
			assert.Equal(t, 2, body.Points[0].AirQuality)
		})
	}
}

func TestHistory_InvalidDuration(t *testing.T) {
	srv, _ := testServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/sensors/A?duration=decade")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body Error
	decode(t, rec, &body)
	assert.Equal(t, ErrCodeBadRequest, body.Code)
}

func TestHistory_ReaderError(t *testing.T) {
	srv, reader := testServer(t, nil)
	reader.EXPECT().History(gomock.Any(), "A", gomock.Any()).Return(nil, sample.ErrPersistence)

	rec := do(t, srv, http.MethodGet, "/api/v1/sensors/A?duration=hour")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetrics(t *testing.T) {
	srv, _ := testServer(t, staticStats{Cycles: 7, LastSampled: 2, LastUnresolved: []string{"C"}})

	rec := do(t, srv, http.MethodGet, "/api/v1/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	var body SystemMetrics
	decode(t, rec, &body)
	assert.Equal(t, "test", body.Version)
	assert.Positive(t, body.Runtime.Goroutines)
	require.NotNil(t, body.Collector)
	assert.EqualValues(t, 7, body.Collector.Cycles)
	assert.Equal(t, []string{"C"}, body.Collector.LastUnresolved)
}

func TestMetrics_WithoutStats(t *testing.T) {
	srv, _ := testServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	var body SystemMetrics
	decode(t, rec, &body)
	assert.Nil(t, body.Collector)
}

func TestRouting_Errors(t *testing.T) {
	srv, _ := testServer(t, nil)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/v2/health").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodPost, "/api/v1/health").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	srv, _ := testServer(t, nil)

	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_Lifecycle(t *testing.T) {
	srv, _ := testServer(t, nil)

	assert.Error(t, srv.HealthCheck(context.Background()), "not started")
	assert.NoError(t, srv.Close(), "close before start")

	require.NoError(t, srv.Start(context.Background()))
	assert.NoError(t, srv.HealthCheck(context.Background()))
	assert.NoError(t, srv.Close())
}
