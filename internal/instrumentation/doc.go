// Package instrumentation provides OpenTelemetry instrumentation for
// inboxdigest.
//
// # Metrics
//
// Digest Metrics:
//   - messages_processed_total: Counter of messages by result (newsletter, skipped, failed)
//   - stories_extracted_total: Counter of extracted stories by parser
//   - extraction_duration_seconds: Histogram of segmentation time by parser
//   - extraction_fallback_total: Counter of messages that only produced the fallback story
//
// Gmail API Metrics:
//   - google_api_operations_total: Counter of Gmail API calls by operation and status
//   - google_api_operation_duration_seconds: Histogram of Gmail API call durations
//
// MCP Metrics:
//   - mcp_tool_invocations_total and mcp_tool_duration_seconds by tool and status
//   - http_requests_total and http_request_duration_seconds for the HTTP transport
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>), Gmail API calls
// (google.gmail.<operation>) and every processed message (digest.message).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxdigest)
//   - METRICS_DETAILED_LABELS: add sender_domain to per-message metrics
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordExtraction(ctx, "vendor", 4, false, time.Since(start))
package instrumentation
