package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
)

func metricsConfig() config.Config {
	return config.Config{Observability: config.Observability{
		ServiceName:     "atelier-test",
		Environment:     "test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}}
}

func TestManager_PrometheusScrape(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, metricsConfig(), zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	defer lc.RequireStop()

	assert.True(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	require.NotNil(t, mgr.Registry())

	counter, err := otel.Meter("test").Int64Counter("atelier.test.orders")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Contains(t, rec.Body.String(), "atelier_test_orders")
}

func TestManager_BuildsTwice(t *testing.T) {
	for range 2 {
		_, err := NewManager(fxtest.NewLifecycle(t), metricsConfig(), zap.NewNop())
		require.NoError(t, err)
	}
}

func TestManager_UnknownExportersDisable(t *testing.T) {
	cfg := config.Config{Observability: config.Observability{
		EnableTracing:   true,
		TraceExporter:   "jaeger",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}}
	mgr, err := NewManager(fxtest.NewLifecycle(t), cfg, nil)
	require.NoError(t, err)
	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
}
