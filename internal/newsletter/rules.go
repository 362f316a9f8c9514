package newsletter

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules is the declarative rule set driving classification and extraction.
type Rules struct {
	// VendorMarker selects the structured vendor parser when found in the sender.
	VendorMarker string `yaml:"vendorMarker"`

	// NewsletterDomains are sender domains that are always accepted.
	NewsletterDomains []string `yaml:"newsletterDomains"`

	// NewsletterKeywords mark a subject as newsletter-like.
	NewsletterKeywords []string `yaml:"newsletterKeywords"`

	// PromotionalKeywords veto a subject that otherwise looks like a newsletter.
	PromotionalKeywords []string `yaml:"promotionalKeywords"`

	// KnownCompanies are matched first when resolving a story's company.
	KnownCompanies []string `yaml:"knownCompanies"`

	// Tickers maps a company name to its stock ticker.
	Tickers map[string]string `yaml:"tickers"`
}

// DefaultRules returns the embedded rule set.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rules are invalid: %v", err))
	}
	return r
}

// LoadRules reads a YAML rule file. An empty path yields the embedded defaults.
func LoadRules(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	r, err := ParseRules(b)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return r, nil
}

// ParseRules decodes and validates a YAML rule document.
func ParseRules(b []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	r.normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that the rule set can drive the classifier.
func (r *Rules) Validate() error {
	if r.VendorMarker == "" {
		return errors.New("vendorMarker is required")
	}
	if len(r.NewsletterKeywords) == 0 {
		return errors.New("at least one newsletter keyword is required")
	}
	for _, d := range r.NewsletterDomains {
		if strings.ContainsAny(d, " @/") {
			return fmt.Errorf("invalid newsletter domain %q", d)
		}
	}
	return nil
}

// Ticker returns the ticker for company, or "N/A".
func (r *Rules) Ticker(company string) string {
	if t, ok := r.Tickers[company]; ok && t != "" {
		return t
	}
	return NotAvailable
}

// normalize lower-cases the case-insensitive lists and drops blanks.
func (r *Rules) normalize() {
	r.VendorMarker = strings.ToLower(strings.TrimSpace(r.VendorMarker))
	r.NewsletterDomains = lowerAll(r.NewsletterDomains)
	r.NewsletterKeywords = lowerAll(r.NewsletterKeywords)
	r.PromotionalKeywords = lowerAll(r.PromotionalKeywords)

	companies := r.KnownCompanies[:0]
	for _, c := range r.KnownCompanies {
		if c = strings.TrimSpace(c); c != "" {
			companies = append(companies, c)
		}
	}
	r.KnownCompanies = companies
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
