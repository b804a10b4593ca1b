package adminhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequenceiq/ambari-agent/internal/controller"
	"github.com/sequenceiq/ambari-agent/internal/report"
	"github.com/sequenceiq/ambari-agent/pkg/clock"
)

func TestHealthz(t *testing.T) {
	ctrl := controller.New(clock.NewFake(0), nil, nil)
	srv := New(report.New(ctrl), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestRecoveryReport(t *testing.T) {
	ctrl := controller.New(clock.NewFake(0), nil, nil)
	srv := New(report.New(ctrl), nil)

	req := httptest.NewRequest(http.MethodGet, "/recovery/report", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body report.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, report.SummaryDisabled, body.Summary)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	ctrl := controller.New(clock.NewFake(0), nil, nil)
	srv := New(report.New(ctrl), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
}
