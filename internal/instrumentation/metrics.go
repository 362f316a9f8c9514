package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrMethod       = "method"
	attrPath         = "path"
	attrStatus       = "status"
	attrOperation    = "operation"
	attrService      = "service"
	attrResult       = "result"
	attrTool         = "tool"
	attrParser       = "parser"
	attrSenderDomain = "sender_domain"
)

// MetricExtractionDuration is the histogram the provider rebuckets from
// Config.ExtractionBuckets.
const MetricExtractionDuration = "extraction_duration_seconds"

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Gmail API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Digest metrics
	messagesProcessedTotal metric.Int64Counter
	storiesExtractedTotal  metric.Int64Counter
	extractionDuration     metric.Float64Histogram
	extractionFallback     metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Gmail API Metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	// Digest Metrics
	m.messagesProcessedTotal, err = meter.Int64Counter(
		"messages_processed_total",
		metric.WithDescription("Total number of mail messages processed by result"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_processed_total counter: %w", err)
	}

	m.storiesExtractedTotal, err = meter.Int64Counter(
		"stories_extracted_total",
		metric.WithDescription("Total number of stories extracted by parser"),
		metric.WithUnit("{story}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stories_extracted_total counter: %w", err)
	}

	m.extractionDuration, err = meter.Float64Histogram(
		MetricExtractionDuration,
		metric.WithDescription("Story extraction duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultExtractionBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s histogram: %w", MetricExtractionDuration, err)
	}

	m.extractionFallback, err = meter.Int64Counter(
		"extraction_fallback_total",
		metric.WithDescription("Total number of messages that produced only the fallback story"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction_fallback_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (gmail)
//   - operation: Operation type (list, get)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordMessage counts a processed message.
//
// Parameters:
//   - result: ResultNewsletter, ResultSkipped or ResultFailed
//   - senderDomain: only attached when detailed labels are enabled
func (m *Metrics) RecordMessage(ctx context.Context, result, senderDomain string) {
	if m.messagesProcessedTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}
	if m.detailedLabels && senderDomain != "" {
		attrs = append(attrs, attribute.String(attrSenderDomain, senderDomain))
	}

	m.messagesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordExtraction records one segmentation run: the parser used, the number
// of stories produced, whether the fallback story was returned and how long
// it took.
func (m *Metrics) RecordExtraction(ctx context.Context, parser string, stories int, fallback bool, duration time.Duration) {
	if m.storiesExtractedTotal == nil || m.extractionDuration == nil || m.extractionFallback == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(attribute.String(attrParser, parser))

	m.extractionDuration.Record(ctx, duration.Seconds(), attrs)
	if fallback {
		m.extractionFallback.Add(ctx, 1, attrs)
		return
	}
	m.storiesExtractedTotal.Add(ctx, int64(stories), attrs)
}
