package gmail

import (
	"context"
	"fmt"

	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

// DefaultWindow is the default search window in Gmail's newer_than syntax.
const DefaultWindow = "1d"

// Source lists and fetches newsletter candidates from a Gmail mailbox.
type Source struct {
	client *Client
	rules  *newsletter.Rules
	window string
	notes  []string
}

// NewSource creates a source searching messages newer than window.
func NewSource(client *Client, rules *newsletter.Rules, window string) *Source {
	if window == "" {
		window = DefaultWindow
	}
	if rules == nil {
		rules = newsletter.DefaultRules()
	}
	return &Source{client: client, rules: rules, window: window}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string {
	return instrumentation.ServiceGmail
}

// List runs the search tiers until one returns messages.
func (s *Source) List(ctx context.Context) ([]string, error) {
	s.notes = nil
	var ids []string
	for i, tier := range SearchTiers(s.window, s.rules.NewsletterDomains, s.rules.VendorMarker) {
		if i > 0 {
			s.notes = append(s.notes, tier.Retry)
		}
		var err error
		ids, err = s.client.ListMessageIDs(ctx, tier.Query, tier.Max)
		if err != nil {
			return nil, err
		}
		s.notes = append(s.notes, fmt.Sprintf(tier.Found, len(ids)))
		if len(ids) > 0 {
			break
		}
	}
	s.notes = append(s.notes, fmt.Sprintf("Total messages to process: %d", len(ids)))
	return ids, nil
}

// Fetch retrieves and decodes one message.
func (s *Source) Fetch(ctx context.Context, id string) (newsletter.RawMessage, error) {
	msg, err := s.client.GetMessage(ctx, id)
	if err != nil {
		return newsletter.RawMessage{}, err
	}
	return ToRawMessage(msg), nil
}

// Notes describes how the last List call selected messages.
func (s *Source) Notes() []string {
	return s.notes
}
