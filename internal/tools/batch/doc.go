// Package batch provides helpers for tools that operate on several message
// IDs at once: parsing a string-or-array parameter, running an operation per
// ID with partial failures, and formatting the aggregated JSON result.
package batch
