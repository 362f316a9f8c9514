package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

// Pipeline classifies and segments the messages of a Source.
type Pipeline struct {
	extractor *newsletter.Extractor
	logger    logging.Logger
	metrics   *instrumentation.Metrics
	now       func() time.Time
}

// NewPipeline creates a pipeline. A nil logger discards logs and nil metrics
// disables recording.
func NewPipeline(extractor *newsletter.Extractor, logger logging.Logger, metrics *instrumentation.Metrics) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	return &Pipeline{
		extractor: extractor,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Run processes every message listed by src. Only a failing List or a
// cancelled context is returned as an error; the digest built so far is
// returned alongside a cancellation.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Digest, error) {
	d := &Digest{Source: src.Name(), GeneratedAt: p.now()}

	ctx, span := instrumentation.StartSpan(ctx, "digest.run",
		instrumentation.NewSpanAttributeBuilder().WithService(src.Name()).Build()...)
	defer span.End()

	ids, err := src.List(ctx)
	if n, ok := src.(Noter); ok {
		d.ProcessLog = append(d.ProcessLog, n.Notes()...)
	}
	if err != nil {
		d.note(fmt.Sprintf("Error: %v", err))
		instrumentation.SetSpanError(span, err)
		return d, fmt.Errorf("list %s messages: %w", src.Name(), err)
	}
	log := p.logger.With(logging.Source(src.Name()))
	log.Info("processing messages", logging.Count(len(ids)))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			instrumentation.SetSpanError(span, err)
			return d, err
		}
		p.process(ctx, log, src, id, d)
	}

	instrumentation.SetSpanSuccess(span)
	log.Info("digest complete",
		logging.Totals(len(d.Newsletters), d.Skipped, d.Failed))
	return d, nil
}

func (p *Pipeline) process(ctx context.Context, log logging.Logger, src Source, id string, d *Digest) {
	ctx, span := instrumentation.StartMessageSpan(ctx, src.Name(), id)
	defer span.End()

	msg, err := src.Fetch(ctx, id)
	if err != nil {
		d.Failed++
		d.note(fmt.Sprintf("Error processing message %s: %v", id, err))
		log.Warn("failed to fetch message", logging.MessageID(id), logging.Err(err))
		p.metrics.RecordMessage(ctx, instrumentation.ResultFailed, "")
		instrumentation.SetSpanError(span, err)
		return
	}

	domain := newsletter.SenderDomain(msg.Sender)
	label := instrumentation.DomainLabel(domain)
	c := p.extractor.Classify(msg)
	d.note(fmt.Sprintf("Email from %s: '%s' - Valid: %t", msg.Sender, msg.Subject, c.Newsletter))
	if !c.Newsletter {
		d.Skipped++
		d.note(fmt.Sprintf("Skipped promotional email from %s: %s", msg.Sender, msg.Subject))
		log.Debug("skipped message", logging.MessageID(id), logging.SenderDomain(domain), logging.Reason(string(c.Reason)))
		p.metrics.RecordMessage(ctx, instrumentation.ResultSkipped, label)
		instrumentation.AddSpanEvent(span, "skipped")
		instrumentation.SetSpanSuccess(span)
		return
	}

	start := time.Now()
	res := p.extractor.Extract(msg)
	p.metrics.RecordExtraction(ctx, string(res.Parser), len(res.Stories), res.Degraded(), time.Since(start))
	p.metrics.RecordMessage(ctx, instrumentation.ResultNewsletter, label)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithExtraction(string(res.Parser), len(res.Stories), res.Degraded()).
		Build()...)

	if res.Diagnostic != "" {
		log.Warn("vendor layout not recognised", logging.MessageID(id), logging.SenderDomain(domain), logging.Diagnostic(res.Diagnostic))
		instrumentation.AddSpanEvent(span, "fallback")
	}

	if msg.ID == "" {
		msg.ID = id
	}
	d.Newsletters = append(d.Newsletters, Newsletter{
		ID:          msg.ID,
		Sender:      msg.Sender,
		Subject:     msg.Subject,
		Date:        msg.Date,
		Parser:      res.Parser,
		Status:      res.Status,
		Diagnostic:  res.Diagnostic,
		Unsubscribe: msg.Unsubscribe(),
		Stories:     res.Stories,
	})
	d.note(fmt.Sprintf("Processed newsletter from %s: %d stories found", msg.Sender, len(res.Stories)))
	log.Debug("processed newsletter",
		logging.MessageID(id),
		logging.SenderDomain(domain),
		logging.Parser(string(res.Parser)),
		logging.Stories(len(res.Stories)))
	instrumentation.SetSpanSuccess(span)
}
