package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hydrophone-sonify/internal/adapter/httpadapter"
	"github.com/couchcryptid/hydrophone-sonify/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockStatus struct {
	summary *pipeline.RunSummary
}

func (m *mockStatus) LastRun() (pipeline.RunSummary, bool) {
	if m.summary == nil {
		return pipeline.RunSummary{}, false
	}
	return *m.summary, true
}

func newTestServer(readyErr error, summary *pipeline.RunSummary) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, &mockStatus{summary: summary}, slog.Default())
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeStatus(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("pipeline has not exported any folder yet"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeStatus(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "pipeline has not exported any folder yet", body["error"])
}

func TestStatusBeforeFirstRun(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no run completed yet", decodeStatus(t, rec)["status"])
}

func TestStatusReturnsLastRun(t *testing.T) {
	summary := &pipeline.RunSummary{
		RunID:           "0b9e7a3c-5d0e-4d0b-9a54-3c1d8f0e2a11",
		Started:         time.Date(2025, 5, 14, 12, 0, 0, 0, time.UTC),
		DurationSeconds: 42.5,
		Exported:        1,
		Folders: []pipeline.FolderSummary{{
			URL:      "https://rawdata-west.oceanobservatories.org/files/RS03AXPS/PC03A/HYDBBA303/2025/05/14/",
			Status:   pipeline.StatusExported,
			Path:     "sonifications/RS03AXPS_PC03A_HYDBBA303_2025_05_14_120042_sonification.wav",
			Selected: 4,
			Merged:   3,
			Failed:   1,
			Samples:  76800000,
		}},
	}
	rec := get(t, newTestServer(nil, summary), "/status")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got pipeline.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *summary, got)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
