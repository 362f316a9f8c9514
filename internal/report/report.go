package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teemow/inboxdigest/internal/digest"
	"github.com/teemow/inboxdigest/internal/market"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

const (
	// Title heads every report.
	Title = "Newsletter News Report"
	// NotesHeading introduces the process log.
	NotesHeading = "## Newsletter Processing Notes"

	// DefaultFilename is used when no output path is given.
	DefaultFilename = "newsletter_report.md"
)

var (
	// ErrEmptyPath is returned by Save for a blank path.
	ErrEmptyPath = errors.New("report path is empty")

	// ErrOutsideDir is returned by SaveIn for names that leave the report
	// directory.
	ErrOutsideDir = errors.New("report name must be a relative path inside the report directory")
)

// Options control rendering.
type Options struct {
	// Rules resolve company tickers. Nil selects the embedded defaults.
	Rules *newsletter.Rules
	// Quotes maps tickers to market context, as returned by market.Lookup.
	Quotes map[string]string
	// Date is printed under the title. Zero uses the digest time.
	Date time.Time
}

// Tickers returns the resolvable tickers of every story in d.
func Tickers(d *digest.Digest, rules *newsletter.Rules) []string {
	if rules == nil {
		rules = newsletter.DefaultRules()
	}
	var out []string
	seen := map[string]bool{}
	for _, s := range d.Stories() {
		t := rules.Ticker(s.Company)
		if t == newsletter.NotAvailable || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Build renders d as Markdown.
func Build(d *digest.Digest, opts Options) string {
	rules := opts.Rules
	if rules == nil {
		rules = newsletter.DefaultRules()
	}
	date := opts.Date
	if date.IsZero() {
		date = d.GeneratedAt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title)
	if !date.IsZero() {
		fmt.Fprintf(&b, "**Date:** %s\n\n", date.Format("2006-01-02"))
	}

	stories := d.Stories()
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "Processed %d newsletters and extracted %d stories.", len(d.Newsletters), len(stories))
	if d.Skipped > 0 || d.Failed > 0 {
		fmt.Fprintf(&b, " Skipped %d messages, %d failed.", d.Skipped, d.Failed)
	}
	b.WriteString("\n\n")

	if len(d.Newsletters) > 0 {
		b.WriteString("### Newsletters Processed\n\n")
		for _, n := range d.Newsletters {
			fmt.Fprintf(&b, "- %s: %s", n.Sender, n.Subject)
			if u := unsubscribeLink(n.Unsubscribe); u != "" {
				fmt.Fprintf(&b, " ([unsubscribe](%s))", u)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Stories\n\n")
	if len(stories) == 0 {
		b.WriteString("No stories found.\n\n")
	}
	i := 0
	for _, n := range d.Newsletters {
		for _, s := range n.Stories {
			i++
			writeStory(&b, i, s, n.Date, rules, opts.Quotes)
		}
	}

	b.WriteString(NotesHeading + "\n\n")
	for _, note := range d.ProcessLog {
		fmt.Fprintf(&b, "- %s\n", note)
	}
	return b.String()
}

func writeStory(b *strings.Builder, i int, s newsletter.Story, date string, rules *newsletter.Rules, quotes map[string]string) {
	ticker := rules.Ticker(s.Company)
	financial := market.NoFinancialData
	if q, ok := quotes[ticker]; ok && ticker != newsletter.NotAvailable {
		financial = q
	}

	fmt.Fprintf(b, "### %d. %s\n\n", i, s.Title)
	fmt.Fprintf(b, "- **Company:** %s\n", s.Company)
	fmt.Fprintf(b, "- **Ticker:** %s\n", ticker)
	fmt.Fprintf(b, "- **Financial Context:** %s\n", financial)
	fmt.Fprintf(b, "- **Newsletter:** %s\n", s.Newsletter)
	fmt.Fprintf(b, "- **Subject:** %s\n", s.Subject)
	if date != "" {
		fmt.Fprintf(b, "- **Received:** %s\n", date)
	}
	fmt.Fprintf(b, "\n%s\n\n", s.Content)
}

// Save writes content to path, appending ".md" when missing. It returns the
// path written.
func Save(path, content string) (string, error) {
	path, err := reportName(path)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// LocalName validates name for SaveIn and returns it with the ".md"
// suffix.
func LocalName(name string) (string, error) {
	name, err := reportName(name)
	if err != nil {
		return "", err
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDir, name)
	}
	return name, nil
}

// SaveIn writes content to name inside dir. Names that are absolute, climb
// out with "..", or resolve through a symlink outside dir are refused.
func SaveIn(dir, name, content string) (string, error) {
	name, err := LocalName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", fmt.Errorf("open report directory: %w", err)
	}
	defer root.Close()

	if sub := filepath.Dir(name); sub != "." {
		if err := root.MkdirAll(sub, 0o755); err != nil {
			return "", fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := root.WriteFile(name, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func reportName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyPath
	}
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	return name, nil
}

// unsubscribeLink prefers an http target over mailto.
func unsubscribeLink(methods []newsletter.UnsubscribeMethod) string {
	link := ""
	for _, m := range methods {
		if m.Type == newsletter.UnsubscribeHTTP {
			return m.URL
		}
		if link == "" {
			link = m.URL
		}
	}
	return link
}
