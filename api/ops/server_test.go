package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roomradar/roomradar-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "development"}}
}

func TestHealthzReturnsLive(t *testing.T) {
	handler := NewHandler(HandlerParams{Config: testConfig()})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "live")
}

func TestReadyzChecksDependencies(t *testing.T) {
	handler := NewHandler(HandlerParams{
		Config: testConfig(),
		DB:     fakePinger{},
		Redis:  fakePinger{},
	})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "ready")
}

func TestReadyzReportsUnreachableDependency(t *testing.T) {
	handler := NewHandler(HandlerParams{
		Config: testConfig(),
		DB:     fakePinger{err: errors.New("connection refused")},
	})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "database")
}

func TestMetricsEndpointServes(t *testing.T) {
	handler := NewHandler(HandlerParams{Config: testConfig()})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
}
