package newsletter

import "strings"

const (
	// NotAvailable is the sentinel for an unresolved company or ticker.
	NotAvailable = "N/A"

	// MaxStories is the upper bound of stories extracted from one message.
	MaxStories = 5

	// MaxTitleLen and MaxContentLen bound story fields, in runes.
	MaxTitleLen   = 200
	MaxContentLen = 1000

	// fallbackExcerptLen bounds the body excerpt of the fallback story.
	fallbackExcerptLen = 500
)

// Header is a single message header. Names are not unique within a message.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawMessage is a decoded mail message as supplied by a mail source.
type RawMessage struct {
	ID      string   `json:"id,omitempty"`
	Sender  string   `json:"sender"`
	Subject string   `json:"subject"`
	Date    string   `json:"date,omitempty"`
	Headers []Header `json:"headers,omitempty"`
	// Body is the decoded HTML or plain-text body.
	Body string `json:"body"`
}

// Header returns the value of the first header named name.
// Names are compared case-insensitively.
func (m RawMessage) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Story is one news item extracted from a newsletter.
type Story struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Company    string `json:"company"`
	Newsletter string `json:"newsletter"`
	Subject    string `json:"subject"`
}

// Parser identifies which segmentation strategy produced a result.
type Parser string

const (
	ParserVendor  Parser = "vendor"
	ParserGeneric Parser = "generic"
)

// Status tags a segmentation result.
type Status string

const (
	// StatusExtracted means at least one story was found by the parser.
	StatusExtracted Status = "extracted"
	// StatusFallback means nothing was found and the single
	// subject-plus-excerpt story was returned instead.
	StatusFallback Status = "fallback"
)

// Result is the outcome of segmenting one message. Stories always holds
// between 1 and MaxStories entries.
type Result struct {
	Stories []Story `json:"stories"`
	Parser  Parser  `json:"parser"`
	Status  Status  `json:"status"`
	// Diagnostic explains a degraded result, e.g. a recognised vendor
	// message in which no headline matched.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Degraded reports whether the result is the fallback story.
func (r Result) Degraded() bool {
	return r.Status == StatusFallback
}
