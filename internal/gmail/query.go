package gmail

import (
	"fmt"
	"strings"
)

// searchSubjects are the subject words of the keyword search tier.
var searchSubjects = []string{"newsletter", "daily", "weekly", "digest", "roundup", "briefing"}

// Tier is one step of the newsletter search.
type Tier struct {
	Name  string
	Query string
	Max   int64
	// Retry is noted before the tier runs after an empty previous tier.
	Retry string
	// Found is a format for the number of messages the tier returned.
	Found string
}

// SearchTiers returns the searches tried in order until one finds messages:
// the known newsletter domains, then newsletter-like subjects and the vendor
// marker, then every message in the window.
func SearchTiers(window string, domains []string, vendorMarker string) []Tier {
	base := "newer_than:" + window

	var tiers []Tier
	if len(domains) > 0 {
		from := make([]string, len(domains))
		for i, d := range domains {
			from[i] = "from:" + d
		}
		tiers = append(tiers, Tier{
			Name:  "known newsletter domains",
			Query: fmt.Sprintf("%s AND (%s)", base, strings.Join(from, " OR ")),
			Max:   50,
			Found: "Found %d emails from known newsletter domains",
		})
	}

	terms := make([]string, 0, len(searchSubjects)+2)
	for _, s := range searchSubjects {
		terms = append(terms, "subject:"+s)
	}
	if vendorMarker != "" {
		terms = append(terms, "from:"+vendorMarker, "subject:"+vendorMarker)
	}
	tiers = append(tiers,
		Tier{
			Name:  "broader search",
			Query: fmt.Sprintf("%s AND (%s)", base, strings.Join(terms, " OR ")),
			Max:   50,
			Retry: "No emails from known domains, trying broader search...",
			Found: "Found %d emails from broader search",
		},
		Tier{
			Name:  "recent emails",
			Query: base,
			Max:   100,
			Retry: "Still no emails, trying even broader search...",
			Found: "Found %d total recent emails to filter manually",
		},
	)
	return tiers
}
