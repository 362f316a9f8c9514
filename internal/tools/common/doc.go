// Package common provides helpers shared by the MCP tool packages:
// argument parsing and the instrumentation wrapper every tool handler is
// registered with.
package common
