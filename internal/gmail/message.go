package gmail

import (
	"encoding/base64"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxdigest/internal/newsletter"
)

// Header defaults for messages missing the header.
const (
	UnknownSender = "Unknown Sender"
	NoSubject     = "No Subject"
	UnknownDate   = "Unknown Date"
)

// ToRawMessage converts a full-format Gmail message.
func ToRawMessage(msg *gmail.Message) newsletter.RawMessage {
	raw := newsletter.RawMessage{ID: msg.Id}
	if msg.Payload == nil {
		raw.Sender, raw.Subject, raw.Date = UnknownSender, NoSubject, UnknownDate
		return raw
	}

	for _, h := range msg.Payload.Headers {
		raw.Headers = append(raw.Headers, newsletter.Header{Name: h.Name, Value: h.Value})
	}
	raw.Sender = HeaderValue(msg.Payload.Headers, "From", UnknownSender)
	raw.Subject = HeaderValue(msg.Payload.Headers, "Subject", NoSubject)
	raw.Date = HeaderValue(msg.Payload.Headers, "Date", UnknownDate)
	raw.Body = ExtractBody(msg.Payload)
	return raw
}

// HeaderValue returns the first header named name, or def.
func HeaderValue(headers []*gmail.MessagePartHeader, name, def string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return def
}

// ExtractBody returns the first text/html or text/plain part with data,
// searching depth-first. It returns "" when no such part exists.
func ExtractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/html" || part.MimeType == "text/plain" {
		if part.Body != nil && part.Body.Data != "" {
			if b, ok := decodeBody(part.Body.Data); ok {
				return b
			}
		}
	}
	for _, p := range part.Parts {
		if b := ExtractBody(p); b != "" {
			return b
		}
	}
	return ""
}

// decodeBody decodes Gmail's base64url body data, tolerating missing padding
// and standard base64.
func decodeBody(data string) (string, bool) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if b, err := enc.DecodeString(data); err == nil {
			return string(b), true
		}
	}
	return "", false
}
