package newsletter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// "Company Y today announced ...", "Acme Labs launched ..."
	announcedPattern = regexp.MustCompile(`\b([A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*){0,2})\s+(?:(?:today|now|recently|officially|also|just|has|have)\s+)*(?:announced|launched|released|unveiled|introduced|revealed)\b`)
	// "Acme's new chip ..."
	possessivePattern = regexp.MustCompile(`\b([A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*){0,2})['’]s\s+`)
)

// company returns the first company candidate found in content, trying the
// known-company list before the textual patterns.
func (e *Extractor) company(content string) string {
	for _, p := range e.companyPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			if c := strings.TrimSpace(m[1]); c != "" {
				return c
			}
		}
	}
	return NotAvailable
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// flatten collapses every whitespace run, newlines included, to one space.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
