package digest

import (
	"context"
	"time"

	"github.com/teemow/inboxdigest/internal/newsletter"
)

// Source supplies raw messages to the pipeline.
type Source interface {
	// Name identifies the source in logs, spans and metrics.
	Name() string
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, id string) (newsletter.RawMessage, error)
}

// Noter is implemented by sources that describe how they selected messages.
type Noter interface {
	Notes() []string
}

// Newsletter is one accepted message together with its stories.
type Newsletter struct {
	ID          string                         `json:"id"`
	Sender      string                         `json:"sender"`
	Subject     string                         `json:"subject"`
	Date        string                         `json:"date"`
	Parser      newsletter.Parser              `json:"parser"`
	Status      newsletter.Status              `json:"status"`
	Diagnostic  string                         `json:"diagnostic,omitempty"`
	Unsubscribe []newsletter.UnsubscribeMethod `json:"unsubscribe,omitempty"`
	Stories     []newsletter.Story             `json:"stories"`
}

// Digest is the outcome of one pipeline run.
type Digest struct {
	Source      string       `json:"source"`
	GeneratedAt time.Time    `json:"generated_at"`
	Newsletters []Newsletter `json:"newsletters"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
	ProcessLog  []string     `json:"process_log"`
}

// Stories flattens the stories of all newsletters in order.
func (d *Digest) Stories() []newsletter.Story {
	var out []newsletter.Story
	for _, n := range d.Newsletters {
		out = append(out, n.Stories...)
	}
	return out
}

func (d *Digest) note(s string) {
	d.ProcessLog = append(d.ProcessLog, s)
}
