package newsletter

import (
	"net/mail"
	"strings"
)

// Reason names the rule that decided a classification.
type Reason string

const (
	ReasonListID      Reason = "list-id"
	ReasonDomain      Reason = "domain"
	ReasonVendor      Reason = "vendor"
	ReasonKeywords    Reason = "keywords"
	ReasonPromotional Reason = "promotional"
	ReasonNone        Reason = "none"
)

// Classification is the classifier's decision together with its reason.
type Classification struct {
	Newsletter bool   `json:"newsletter"`
	Reason     Reason `json:"reason"`
}

// IsNewsletter reports whether msg is a newsletter rather than promotional
// mail or noise.
func (e *Extractor) IsNewsletter(msg RawMessage) bool {
	return e.Classify(msg).Newsletter
}

// Classify runs the newsletter rules in order; the first decisive rule wins.
// The keyword rule is total, so a decision is always returned.
func (e *Extractor) Classify(msg RawMessage) Classification {
	if v, ok := msg.Header("List-ID"); ok && strings.TrimSpace(v) != "" {
		return Classification{Newsletter: true, Reason: ReasonListID}
	}

	if domain := SenderDomain(msg.Sender); domain != "" && e.knownDomain(domain) {
		return Classification{Newsletter: true, Reason: ReasonDomain}
	}

	sender := strings.ToLower(msg.Sender)
	subject := strings.ToLower(msg.Subject)
	if strings.Contains(sender, e.rules.VendorMarker) || strings.Contains(subject, e.rules.VendorMarker) {
		return Classification{Newsletter: true, Reason: ReasonVendor}
	}

	if !containsAny(subject, e.rules.NewsletterKeywords) {
		return Classification{Newsletter: false, Reason: ReasonNone}
	}
	if containsAny(subject, e.rules.PromotionalKeywords) {
		return Classification{Newsletter: false, Reason: ReasonPromotional}
	}
	return Classification{Newsletter: true, Reason: ReasonKeywords}
}

// knownDomain matches domain against the allow-list, including subdomains
// such as "email.axios.com".
func (e *Extractor) knownDomain(domain string) bool {
	for _, d := range e.rules.NewsletterDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// SenderDomain returns the lower-cased domain of a From header value such
// as "Morning Brew <crew@morningbrew.com>". It returns "" when no address
// can be found.
func SenderDomain(sender string) string {
	addr := sender
	if a, err := mail.ParseAddress(sender); err == nil {
		addr = a.Address
	} else if start := strings.LastIndex(sender, "<"); start >= 0 {
		addr = strings.TrimSuffix(sender[start+1:], ">")
	}

	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	domain := strings.ToLower(strings.TrimSpace(addr[at+1:]))
	return strings.Trim(domain, "<>\"' ")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
