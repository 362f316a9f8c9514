package mbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

const idPrefix = "mbox:"

var (
	// ErrEmptyPath is returned when no mbox path was configured.
	ErrEmptyPath = errors.New("mbox path is empty")
	// ErrUnknownID is returned by Fetch for IDs not produced by List.
	ErrUnknownID = errors.New("unknown mbox message id")
)

// Source serves the messages of one mbox file.
type Source struct {
	open   func() (io.ReadCloser, error)
	logger *slog.Logger
	raw    [][]byte
}

// NewSource creates a source reading the mbox file at path.
func NewSource(path string, logger *slog.Logger) (*Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	open := func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open mbox: %w", err)
		}
		return f, nil
	}
	return newSource(open, logger), nil
}

// NewSourceFromBytes creates a source over an in-memory mbox.
func NewSourceFromBytes(data []byte, logger *slog.Logger) *Source {
	open := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return newSource(open, logger)
}

func newSource(open func() (io.ReadCloser, error), logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		open:   open,
		logger: logging.WithService(logger, instrumentation.ServiceMbox),
	}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string {
	return instrumentation.ServiceMbox
}

// List reads the whole file and returns one ID per message.
func (s *Source) List(ctx context.Context) ([]string, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	s.raw = nil
	r := mboxlib.NewReader(rc)
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := r.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", idx, err)
		}
		b, err := io.ReadAll(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d read: %w", idx, err)
		}
		s.raw = append(s.raw, b)
	}

	ids := make([]string, len(s.raw))
	for i := range s.raw {
		ids[i] = idPrefix + strconv.Itoa(i)
	}
	s.logger.Debug("read mbox", slog.Int("messages", len(ids)))
	return ids, nil
}

// Fetch decodes the message with the given ID.
func (s *Source) Fetch(ctx context.Context, id string) (newsletter.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return newsletter.RawMessage{}, err
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	if !strings.HasPrefix(id, idPrefix) || err != nil || n < 0 || n >= len(s.raw) {
		return newsletter.RawMessage{}, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}

	msg, err := Parse(s.raw[n])
	if err != nil {
		return newsletter.RawMessage{}, fmt.Errorf("message %s: %w", id, err)
	}
	msg.ID = id
	return msg, nil
}

// Parse decodes a single RFC 5322 message.
func Parse(raw []byte) (newsletter.RawMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return newsletter.RawMessage{}, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	out := newsletter.RawMessage{
		Sender:  headerText(mr.Header, "From", "Unknown Sender"),
		Subject: headerText(mr.Header, "Subject", "No Subject"),
		Date:    headerText(mr.Header, "Date", "Unknown Date"),
	}
	fields := mr.Header.Fields()
	for fields.Next() {
		v, err := fields.Text()
		if err != nil {
			v = fields.Value()
		}
		out.Headers = append(out.Headers, newsletter.Header{Name: fields.Key(), Value: v})
	}

	var html, plain string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return newsletter.RawMessage{}, fmt.Errorf("read part: %w", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		switch {
		case ct == "text/html" && html == "":
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return newsletter.RawMessage{}, fmt.Errorf("read html part: %w", err)
			}
			html = string(b)
		case (ct == "text/plain" || ct == "") && plain == "":
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return newsletter.RawMessage{}, fmt.Errorf("read text part: %w", err)
			}
			plain = string(b)
		}
	}

	out.Body = plain
	if html != "" {
		out.Body = html
	}
	return out, nil
}

func headerText(h mail.Header, key, def string) string {
	v, err := h.Text(key)
	if err != nil {
		v = h.Get(key)
	}
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
