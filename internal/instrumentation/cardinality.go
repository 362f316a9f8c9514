package instrumentation

// Cardinality management helpers for metrics.
// Sender addresses are never used as label values; at most their domain is,
// and only when DetailedLabels is enabled.

// UnknownDomain labels messages whose sender has no parsable domain.
const UnknownDomain = "unknown"

// DomainLabel returns the label value for a sender domain as produced by
// newsletter.SenderDomain.
func DomainLabel(domain string) string {
	if domain == "" {
		return UnknownDomain
	}
	return domain
}

// Operation types for Gmail API metrics.
// Status and Service constants are defined in config.go.
const (
	OperationList = "list"
	OperationGet  = "get"
)
