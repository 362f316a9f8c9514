// Package newsletter turns newsletter mail into short story records.
//
// A message body is first reduced to line-oriented text by Normalize. The
// Extractor then decides whether the message is a newsletter (Classify) and
// splits it into at most MaxStories stories (Segment). Senders carrying the
// vendor marker are parsed with a headline grammar of the form
//
//	PRODUCT X LAUNCH (3 MINUTE READ) [1]
//
// while every other sender goes through a paragraph and list splitter.
// Segment never returns an empty result: if nothing is found, a single
// story built from the subject and a body excerpt is returned and the
// result is marked as a fallback.
//
// The domain allow-list, keyword lists, company list and ticker map are
// declarative data loaded from rules.yaml, see Rules.
package newsletter
