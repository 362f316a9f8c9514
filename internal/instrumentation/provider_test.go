package instrumentation

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	handler := provider.PrometheusHandler()
	if handler == nil {
		t.Fatal("expected PrometheusHandler to be non-nil")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Result().Body)
	return string(body)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test-service", Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("disabled provider should not serve metrics")
	}

	// The pipeline records through the no-op recorder.
	provider.Metrics().RecordExtraction(context.Background(), "vendor", 2, false, time.Millisecond)
	if provider.Tracer("test") == nil {
		t.Error("expected a no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProvider_RejectsInvalidConfig(t *testing.T) {
	for name, config := range map[string]Config{
		"metrics exporter":   {Enabled: true, MetricsExporter: "statsd"},
		"tracing exporter":   {Enabled: true, TracingExporter: "jaeger"},
		"otlp endpoint":      {Enabled: true, TracingExporter: ExporterOTLP},
		"extraction buckets": {Enabled: true, ExtractionBuckets: []float64{1, 0.5}},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), config); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestProvider_PrometheusHandlerServesDigestMetrics(t *testing.T) {
	ctx, provider := newTestProvider(t)

	provider.Metrics().RecordMessage(ctx, ResultNewsletter, "")
	provider.Metrics().RecordExtraction(ctx, "vendor", 2, false, time.Millisecond)

	body := scrape(t, provider)
	for _, name := range []string{"messages_processed_total", "stories_extracted_total", "extraction_duration_seconds_bucket"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
	// Default extraction buckets start below a millisecond.
	if !strings.Contains(body, `le="0.0005"`) {
		t.Errorf("expected default extraction buckets in:\n%s", body)
	}
}

func TestProvider_ExtractionBucketsView(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		ExtractionBuckets: []float64{0.25, 2},
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	provider.Metrics().RecordExtraction(ctx, "generic", 1, true, 300*time.Millisecond)

	body := scrape(t, provider)
	if !strings.Contains(body, `le="0.25"`) || !strings.Contains(body, `le="2"`) {
		t.Errorf("expected configured buckets in:\n%s", body)
	}
	if strings.Contains(body, `le="0.0005"`) {
		t.Error("default buckets should be replaced by the view")
	}
	if !strings.Contains(body, "extraction_fallback_total") {
		t.Error("fallback extraction should be counted")
	}
}

func TestProvider_ConsoleExportersWriteToConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
		ConsoleWriter:     &buf,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if provider.PrometheusHandler() != nil {
		t.Error("stdout exporter should not serve prometheus")
	}

	provider.Metrics().RecordMessage(ctx, ResultSkipped, "")
	_, span := provider.Tracer("test").Start(ctx, "digest.run")
	span.End()

	// Shutdown flushes both exporters, as at the end of a digest run.
	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"messages_processed_total", "digest.run"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q", want)
		}
	}
}
