package newsletter

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor classifies messages and segments them into stories using a
// fixed rule set. It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	rules           *Rules
	companyPatterns []*regexp.Regexp
}

// NewExtractor compiles rules into an Extractor. A nil rules value selects
// the embedded defaults.
func NewExtractor(rules *Rules) (*Extractor, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	var patterns []*regexp.Regexp
	if len(rules.KnownCompanies) > 0 {
		quoted := make([]string, len(rules.KnownCompanies))
		for i, c := range rules.KnownCompanies {
			quoted[i] = regexp.QuoteMeta(c)
		}
		known, err := regexp.Compile(`\b(` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compile known companies: %w", err)
		}
		patterns = append(patterns, known)
	}
	patterns = append(patterns, announcedPattern, possessivePattern)

	return &Extractor{rules: rules, companyPatterns: patterns}, nil
}

// Rules returns the rule set the extractor was built from.
func (e *Extractor) Rules() *Rules {
	return e.rules
}

// Extract normalizes the body of msg and segments it into stories.
func (e *Extractor) Extract(msg RawMessage) Result {
	return e.Segment(Normalize(msg.Body), msg.Sender, msg.Subject)
}

// IsVendor reports whether sender uses the structured vendor format.
func (e *Extractor) IsVendor(sender string) bool {
	return strings.Contains(strings.ToLower(sender), e.rules.VendorMarker)
}

// Segment splits normalized text into at most MaxStories stories. It never
// returns an empty result: when no story is found a single story built from
// the subject and a body excerpt is returned with StatusFallback.
func (e *Extractor) Segment(text, sender, subject string) Result {
	if !e.IsVendor(sender) {
		if stories := parseGeneric(text, sender, subject); len(stories) > 0 {
			return Result{Stories: stories, Parser: ParserGeneric, Status: StatusExtracted}
		}
		return fallback(ParserGeneric, flatten(text), sender, subject, "")
	}

	stories, headlines := e.parseVendor(text, sender, subject)
	if len(stories) > 0 {
		return Result{Stories: stories, Parser: ParserVendor, Status: StatusExtracted}
	}

	diagnostic := "vendor sender recognised but no headline matched the expected layout"
	if headlines > 0 {
		diagnostic = fmt.Sprintf("vendor sender recognised and %d headline(s) matched, but none had content lines", headlines)
	}
	// The vendor excerpt keeps its line breaks.
	return fallback(ParserVendor, strings.TrimSpace(vendorClean(text)), sender, subject, diagnostic)
}

func fallback(parser Parser, excerpt, sender, subject, diagnostic string) Result {
	return Result{
		Stories: []Story{{
			Title:      truncate(subject, MaxTitleLen),
			Content:    truncate(excerpt, fallbackExcerptLen),
			Company:    NotAvailable,
			Newsletter: sender,
			Subject:    subject,
		}},
		Parser:     parser,
		Status:     StatusFallback,
		Diagnostic: diagnostic,
	}
}
