// Package report renders a digest as a Markdown news report.
package report
