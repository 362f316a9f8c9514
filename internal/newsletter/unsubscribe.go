package newsletter

import "strings"

// Unsubscribe method types.
const (
	UnsubscribeMailto = "mailto"
	UnsubscribeHTTP   = "http"
)

// UnsubscribeMethod is one target of a List-Unsubscribe header.
type UnsubscribeMethod struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Unsubscribe returns the methods advertised in the List-Unsubscribe
// header (RFC 2369), in header order.
func (m RawMessage) Unsubscribe() []UnsubscribeMethod {
	v, _ := m.Header("List-Unsubscribe")
	return ParseListUnsubscribe(v)
}

// ParseListUnsubscribe parses a header such as
// "<mailto:unsub@example.com>, <https://example.com/unsub>". Targets other
// than mailto and http(s) URLs are ignored.
func ParseListUnsubscribe(header string) []UnsubscribeMethod {
	var methods []UnsubscribeMethod
	for _, part := range strings.Split(header, "<") {
		end := strings.Index(part, ">")
		if end == -1 {
			continue
		}
		url := strings.TrimSpace(part[:end])

		switch {
		case strings.HasPrefix(url, "mailto:"):
			methods = append(methods, UnsubscribeMethod{Type: UnsubscribeMailto, URL: url})
		case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
			methods = append(methods, UnsubscribeMethod{Type: UnsubscribeHTTP, URL: url})
		}
	}
	return methods
}
