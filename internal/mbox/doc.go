// Package mbox reads newsletter candidates from a local mbox file.
//
// Messages are addressed positionally ("mbox:0", "mbox:1", ...) in the order
// they appear in the file. Bodies are decoded with go-message, including
// non-UTF-8 charsets, and the HTML alternative is preferred over plain text.
package mbox
