package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"agroprices/internal/config"
)

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		Environment:   "test",
		TraceExporter: "none",
		SampleRatio:   1,
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)
	assert.Nil(t, providers.TracerProvider)
}

// resource.Merge refuses attributes from a different semconv schema
func TestResourceSchemaMatchesSDKDefault(t *testing.T) {
	assert.Equal(t, resource.Default().SchemaURL(), semconv.SchemaURL)
}

func TestOTelInitializationWithStdoutTraces(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		Environment:   "production",
		TraceExporter: "stdout",
		SampleRatio:   1,
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.TracerProvider)
}

func TestOTelUnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "jaeger"}, nil)
	assert.Error(t, err)
}

func TestWriteMetricsFile(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", SampleRatio: 1}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateIngestMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.UnitsProcessed.Add(ctx, 2, metric.WithAttributes(attribute.String("region", "Lima")))
	metrics.RecordsStored.Add(ctx, 10)
	metrics.IngestDuration.Record(ctx, 0.25)

	path := filepath.Join(t.TempDir(), "agroprices.prom")
	require.NoError(t, providers.WriteMetricsFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ingest_units_processed")
	assert.Contains(t, string(content), `region="Lima"`)
	assert.Contains(t, string(content), "ingest_records_stored")
}

func TestWriteMetricsFileWithoutRegistry(t *testing.T) {
	p := &OTelProviders{}
	assert.Error(t, p.WriteMetricsFile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestCreateIngestMetricsNoop(t *testing.T) {
	metrics, err := CreateIngestMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	// Recording on no-op instruments must be safe
	metrics.UnitsFailed.Add(context.Background(), 1)
	metrics.CellFallbacks.Add(context.Background(), 3)
}

func TestRecordErrorWithoutSpan(t *testing.T) {
	// No active span: must be a no-op
	RecordError(context.Background(), errors.New("boom"))
}
