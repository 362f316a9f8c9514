package instrumentation

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Config controls the metrics and traces recorded while building digests.
type Config struct {
	// ServiceName is the OpenTelemetry service name (default: inboxdigest).
	ServiceName string

	ServiceVersion string

	// Enabled turns instrumentation on. INSTRUMENTATION_ENABLED=false gives a
	// provider whose recorders do nothing.
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port of an OTLP/HTTP collector.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP data without TLS.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based sampling ratio, 0.0 to 1.0.
	TraceSamplingRate float64

	// DetailedLabels adds the sender domain to per-message metrics.
	// Keep it off unless the set of newsletter senders is small.
	DetailedLabels bool

	// ExtractionBuckets are the histogram boundaries, in seconds, of
	// extraction_duration_seconds. Empty means DefaultExtractionBuckets.
	ExtractionBuckets []float64

	// ConsoleWriter receives stdout exporter output. It defaults to stderr
	// because stdout carries the digest report and the stdio transport.
	ConsoleWriter io.Writer
}

// DefaultExtractionBuckets covers segmenting a single message: well under
// a millisecond for short plain text up to half a second for large HTML.
var DefaultExtractionBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from getenv. Malformed values fall back to
// their defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	env := envReader(getenv)
	return Config{
		ServiceName:       env.str("OTEL_SERVICE_NAME", "inboxdigest"),
		ServiceVersion:    "unknown",
		Enabled:           env.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   env.str("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   env.str("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      env.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: env.float("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    env.boolean("METRICS_DETAILED_LABELS", false),
		ExtractionBuckets: env.floats("EXTRACTION_DURATION_BUCKETS"),
	}
}

// Validate checks exporter names, the sampling rate and the extraction
// buckets.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if len(c.ExtractionBuckets) > 0 {
		if c.ExtractionBuckets[0] <= 0 {
			return fmt.Errorf("extraction buckets must be positive, got %v", c.ExtractionBuckets)
		}
		if !slices.IsSorted(c.ExtractionBuckets) || len(slices.Compact(slices.Clone(c.ExtractionBuckets))) != len(c.ExtractionBuckets) {
			return fmt.Errorf("extraction buckets must be strictly increasing, got %v", c.ExtractionBuckets)
		}
	}
	return nil
}

func (c *Config) extractionBuckets() []float64 {
	if len(c.ExtractionBuckets) == 0 {
		return DefaultExtractionBuckets
	}
	return c.ExtractionBuckets
}

func (c *Config) consoleWriter() io.Writer {
	if c.ConsoleWriter == nil {
		return os.Stderr
	}
	return c.ConsoleWriter
}

type envReader func(string) string

func (e envReader) str(key, def string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(e(key)))
	if err != nil {
		return def
	}
	return v
}

func (e envReader) float(key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(e(key)), 64)
	if err != nil {
		return def
	}
	return v
}

// floats parses a comma-separated list such as "0.001,0.01,0.1". Any
// malformed entry discards the whole list.
func (e envReader) floats(key string) []float64 {
	raw := strings.TrimSpace(e(key))
	if raw == "" {
		return nil
	}
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// Constants for metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Mail sources and outbound services.
	ServiceGmail  = "gmail"
	ServiceMbox   = "mbox"
	ServiceMarket = "market"

	// Message processing results
	ResultNewsletter = "newsletter"
	ResultSkipped    = "skipped"
	ResultFailed     = "failed"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
