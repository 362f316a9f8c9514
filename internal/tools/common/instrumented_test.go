package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/newsletter"
	"github.com/teemow/inboxdigest/internal/server"
)

func newServerContext(t *testing.T, metrics *instrumentation.Metrics) *server.ServerContext {
	t.Helper()
	e, err := newsletter.NewExtractor(nil)
	require.NoError(t, err)
	sc, err := server.NewServerContext(context.Background(), server.Config{Extractor: e, Metrics: metrics})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	rec := recordSpans(t)
	sc := newServerContext(t, nil)

	called := false
	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	require.NoError(t, err)
	assert.True(t, called)
	require.NotNil(t, result)
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.test_tool", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	rec := recordSpans(t)
	sc := newServerContext(t, nil)
	expectedErr := errors.New("test error")

	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})

	assert.Equal(t, expectedErr, err)
	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, codes.Error, rec.Ended()[0].Status().Code)
}

func TestInstrumentedToolHandler_ErrorResultRecordsMetrics(t *testing.T) {
	rec := recordSpans(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	sc := newServerContext(t, metrics)

	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("error message"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "error message", rec.Ended()[0].Status().Description)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			for _, p := range m.Data.(metricdata.Sum[int64]).DataPoints {
				if v, ok := p.Attributes.Value("status"); ok && v.AsString() == instrumentation.StatusError {
					total += p.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), total)
}
