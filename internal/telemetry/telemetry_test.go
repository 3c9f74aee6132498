package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_None(t *testing.T) {
	p, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, p.MetricsHandler())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Traces: "jaeger"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
	_, err = Init(context.Background(), Config{Metrics: "statsd"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
}

func TestInit_Prometheus(t *testing.T) {
	p, err := Init(context.Background(), Config{Metrics: ExporterPrometheus})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	counter, err := otel.Meter("adroit.test").Int64Counter("adroit_test_events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.NotNil(t, p.MetricsHandler())
	rec := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "adroit_test_events")
}

func TestInit_StdoutTraces(t *testing.T) {
	var buf bytes.Buffer
	p, err := Init(context.Background(), Config{Traces: ExporterStdout, Writer: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("adroit.test").Start(context.Background(), "test.span")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "test.span")
}
