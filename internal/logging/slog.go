package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation    = "operation"
	KeyService      = "service"
	KeyAccount      = "account"
	KeyDuration     = "duration"
	KeyStatus       = "status"
	KeyError        = "error"
	KeyTool         = "tool"
	KeyMessageID    = "message_id"
	KeySenderDomain = "sender_domain"
	KeyParser       = "parser"
	KeyStories      = "stories"
	KeySource       = "source"
	KeyCount        = "count"
	KeyReason       = "reason"
	KeyDiagnostic   = "diagnostic"
	KeyTicker       = "ticker"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds a logger writing to w. Level is one of debug, info, warn or
// error; format is text or json.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want %s or %s", format, FormatText, FormatJSON)
	}
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// WithAccount returns a logger with the account attribute set.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(slog.String(KeyAccount, account))
}

// Account returns a slog attribute for the account name.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// MessageID returns a slog attribute for a source message ID.
func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, id)
}

// Parser returns a slog attribute for the segmentation parser.
func Parser(parser string) slog.Attr {
	return slog.String(KeyParser, parser)
}

// Stories returns a slog attribute for a story count.
func Stories(n int) slog.Attr {
	return slog.Int(KeyStories, n)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// Source returns a slog attribute for a mail source name.
func Source(name string) slog.Attr {
	return slog.String(KeySource, name)
}

// SenderDomain returns a slog attribute for a sender domain. Senders are
// logged by domain only; pass the result of newsletter.SenderDomain.
func SenderDomain(domain string) slog.Attr {
	return slog.String(KeySenderDomain, domain)
}

// Count returns a slog attribute for a number of items.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Reason returns a slog attribute for a skip reason.
func Reason(reason string) slog.Attr {
	return slog.String(KeyReason, reason)
}

// Diagnostic returns a slog attribute explaining a degraded extraction.
func Diagnostic(text string) slog.Attr {
	return slog.String(KeyDiagnostic, text)
}

// Totals returns a group attribute summarising a digest run.
func Totals(newsletters, skipped, failed int) slog.Attr {
	return slog.Group("totals",
		slog.Int("newsletters", newsletters),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed))
}

// Ticker returns a slog attribute for a stock ticker.
func Ticker(symbol string) slog.Attr {
	return slog.String(KeyTicker, symbol)
}
