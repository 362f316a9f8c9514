package newsletter

import (
	"regexp"
	"strings"
)

const (
	minSectionLen = 100
	untitled      = "Untitled Story"
)

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	listMarker     = regexp.MustCompile(`(?:^|\s)(?:[•·▪▫]|\d+\.)\s+`)
	titleEnd       = regexp.MustCompile(`[.!?]`)
	capitalized    = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\b`)
)

// parseGeneric splits text into paragraphs and list items and keeps the
// ones long enough to be a story.
func parseGeneric(text, sender, subject string) []Story {
	var stories []Story
	for _, section := range genericSections(text) {
		if len(stories) == MaxStories {
			break
		}
		if runeLen(section) < minSectionLen {
			continue
		}

		company := NotAvailable
		if m := capitalized.FindStringSubmatch(section); m != nil {
			company = m[1]
		}
		stories = append(stories, Story{
			Title:      genericTitle(section),
			Content:    truncate(section, MaxContentLen),
			Company:    company,
			Newsletter: sender,
			Subject:    subject,
		})
	}
	return stories
}

// genericSections splits on blank-line paragraph breaks first, so the break
// survives whitespace flattening, then on bullet and numbered markers.
func genericSections(text string) []string {
	var sections []string
	for _, para := range paragraphBreak.Split(text, -1) {
		for _, item := range listMarker.Split(flatten(para), -1) {
			if item = strings.TrimSpace(item); item != "" {
				sections = append(sections, item)
			}
		}
	}
	return sections
}

func genericTitle(section string) string {
	title := section
	if loc := titleEnd.FindStringIndex(section); loc != nil {
		title = section[:loc[0]]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return untitled
	}
	return truncate(title, MaxTitleLen)
}
