// Package logging provides structured logging utilities for inboxdigest.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction from --log-level and --log-format
//   - Consistent attribute naming across the codebase
//   - PII reduction: senders are logged by domain only
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "digest.run")
//	logger.Info("segmented message",
//	    logging.MessageID(id),
//	    logging.SenderDomain(newsletter.SenderDomain(sender)),
//	    logging.Parser("vendor"),
//	    logging.Stories(3))
//
// Message bodies and OAuth tokens are never logged.
package logging
