package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/forecast-eval-runner/internal/adapter/httpadapter"
	"github.com/couchcryptid/forecast-eval-runner/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	err      error
	progress runner.Progress
}

func (m *mockRunner) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockRunner) Progress() runner.Progress { return m.progress }

func newTestServer(r *mockRunner) *httpadapter.Server {
	return httpadapter.NewServer(":0", r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(&mockRunner{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(&mockRunner{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(&mockRunner{err: errors.New("runner has not loaded a plan yet")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProgressReturnsRunnerState(t *testing.T) {
	srv := newTestServer(&mockRunner{progress: runner.Progress{Total: 4, Completed: 1, Skipped: 2, Current: "hres_freeze_ghcn"}})
	rec := serve(srv, "/progress")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got runner.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, runner.Progress{Total: 4, Completed: 1, Skipped: 2, Current: "hres_freeze_ghcn"}, got)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(&mockRunner{}), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRouteReturns404(t *testing.T) {
	rec := serve(newTestServer(&mockRunner{}), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
