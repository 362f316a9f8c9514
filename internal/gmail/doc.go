// Package gmail reads newsletter candidates from a Gmail mailbox.
//
// Client wraps the Gmail API with a rate limiter, tracing spans and API
// metrics. Source searches in tiers (known newsletter domains, then
// newsletter-like subjects, then all recent mail) and converts full-format
// messages into newsletter.RawMessage values, preferring the first HTML or
// plain-text part found depth-first.
package gmail
