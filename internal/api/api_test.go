package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remcons/remconsd/internal/config"
	"github.com/remcons/remconsd/internal/logging"
	"github.com/remcons/remconsd/internal/monitoring"
	"github.com/remcons/remconsd/internal/server"
)

func newTestAPI(t *testing.T) *Server {
	t.Helper()
	promReg := prometheus.NewRegistry()
	metrics := monitoring.New(promReg)
	backend := server.New(config.Default(), logging.NewNop(), metrics)
	return New(backend, metrics, promReg, logging.NewNop())
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["sessions"])
}

func TestListSessionsEmpty(t *testing.T) {
	api := newTestAPI(t)

	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":[]}`, w.Body.String())
}

func TestKillUnknownSession(t *testing.T) {
	api := newTestAPI(t)

	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/sessions/42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	api.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/sessions/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "remconsd_sessions_total")
}

func TestAttachUnknownSession(t *testing.T) {
	api := newTestAPI(t)

	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sessions/7/attach", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
