package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/esdown/pkg/observability"
)

func TestInitNoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &bytes.Buffer{}

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)

	_, span := providers.Tracer.Start(context.Background(), "esdown.bundle")
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "esdown", cfg.ServiceName)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestTracingHandlerInjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "esdown", "1.2.3"))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.WithGroup("bundle").InfoContext(ctx, "module translated", "path", "/a.js")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "esdown", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["bundle"].(map[string]any)["trace_id"])
	assert.Equal(t, "/a.js", record["bundle"].(map[string]any)["path"])
}

func TestNewLoggerText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &buf
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(cfg)
	logger.Info("hidden")
	logger.Warn("shown", "n", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "service=esdown")
}

func TestAttributeFilter(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), nil)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	_, span := tp.Tracer("test").Start(context.Background(), "esdown.translate")
	span.SetAttributes(
		attribute.String("module.path", "/a.js"),
		attribute.String("module.source", "secret"),
		attribute.Int("bundle.modules", 3),
		attribute.String("error.type", "syntax"),
		attribute.String("user.id", "42"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := make(map[string]any)
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	assert.Equal(t, "/a.js", attrs["module.path"])
	assert.Equal(t, int64(3), attrs["bundle.modules"])
	assert.Equal(t, "syntax", attrs["error.type"])
	assert.NotContains(t, attrs, "module.source")
	assert.NotContains(t, attrs, "user.id")
}

func TestTranslateMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tm, err := observability.NewTranslateMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	tm.RecordModule(ctx, 20*time.Millisecond, "")
	tm.RecordModule(ctx, 5*time.Millisecond, "")
	tm.RecordModule(ctx, time.Millisecond, "SyntaxError")
	tm.RecordOutput(ctx, "bundle", 2048)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := make(map[string]int64)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), sums["esdown.modules.translated"])
	assert.Equal(t, int64(1), sums["esdown.translate.errors"])
}

func TestTranslateMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var tm *observability.TranslateMetrics

	assert.NotPanics(t, func() {
		tm.RecordModule(context.Background(), time.Second, "")
		tm.RecordOutput(context.Background(), "translate", 1)
	})
}
