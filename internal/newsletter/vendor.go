package newsletter

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	maxContentLines  = 10
	maxLookahead     = 50
	minContentLen    = 20
	minSectionHeader = 20
	summarySentences = 3
)

var (
	// "CHATGPT ATLAS (4 MINUTE READ) [5]"
	headlinePattern = regexp.MustCompile(`^([A-Z][A-Z\s&',-]+)\s*\((\d+)\s+MINUTE\s+READ\)\s*\[\d+\]`)
	emojiMarker     = regexp.MustCompile(`^[🚀🧠💼📱🎯🔥]+\s*$`)
	sectionHeader   = regexp.MustCompile(`^[A-Z\s&]+$`)
	multiSpace      = regexp.MustCompile(` +`)
	sentenceBreak   = regexp.MustCompile(`[.!?]\s+`)

	zeroWidth = runes.Remove(runes.Predicate(func(r rune) bool {
		return r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff'
	}))
)

// parseVendor scans the structured vendor layout: an all-caps headline with
// a "(N MINUTE READ) [ref]" suffix followed by its content lines. It also
// returns how many headlines matched, including those without content.
func (e *Extractor) parseVendor(text, sender, subject string) ([]Story, int) {
	lines := vendorLines(text)

	var (
		stories   []Story
		headlines int
	)
	for i := 0; i < len(lines) && len(stories) < MaxStories; {
		m := headlinePattern.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		headlines++

		content, next := collectContent(lines, i)
		if len(content) == 0 {
			i++
			continue
		}

		joined := strings.Join(content, " ")
		summary := summarize(joined)
		if summary == "" {
			summary = joined
		}
		stories = append(stories, Story{
			Title:      truncate(strings.TrimSpace(m[1]), MaxTitleLen),
			Content:    truncate(summary, MaxContentLen),
			Company:    e.company(joined),
			Newsletter: sender,
			Subject:    subject,
		})
		i = next
	}
	return stories, headlines
}

// collectContent gathers the content lines following the headline at index
// i. It returns the lines and the index where scanning should resume.
func collectContent(lines []string, i int) ([]string, int) {
	var content []string
	j := i + 1
	for ; j < len(lines) && len(content) < maxContentLines && j-i <= maxLookahead; j++ {
		line := lines[j]
		if headlinePattern.MatchString(line) || emojiMarker.MatchString(line) {
			break
		}
		if sectionHeader.MatchString(line) && runeLen(line) > minSectionHeader {
			break
		}
		if runeLen(line) > minContentLen {
			content = append(content, line)
		}
	}
	return content, j
}

// vendorClean strips zero-width characters and repeated spaces, keeping
// line breaks.
func vendorClean(text string) string {
	if cleaned, _, err := transform.String(zeroWidth, text); err == nil {
		text = cleaned
	}
	return multiSpace.ReplaceAllString(text, " ")
}

// vendorLines splits cleaned text into trimmed lines.
func vendorLines(text string) []string {
	lines := strings.Split(vendorClean(text), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// summarize keeps the first sentences of content. The split is purely
// punctuation based, so abbreviations such as "U.S." end a sentence.
func summarize(content string) string {
	sentences := sentenceBreak.Split(content, -1)
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	summary := strings.Join(sentences, ". ")
	if summary != "" && !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}
