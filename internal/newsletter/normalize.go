package newsletter

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// breaks is the number of line breaks an element forces around itself:
// 2 separates paragraphs with a blank line, 1 starts a new line.
var breaks = map[string]int{
	"address": 2, "article": 2, "aside": 2, "blockquote": 2, "center": 2,
	"dl": 2, "figure": 2, "footer": 2, "form": 2, "h1": 2, "h2": 2,
	"h3": 2, "h4": 2, "h5": 2, "h6": 2, "header": 2, "hr": 2, "main": 2,
	"nav": 2, "ol": 2, "p": 2, "pre": 2, "section": 2, "table": 2,
	"title": 2, "ul": 2,

	"body": 1, "br": 1, "dd": 1, "div": 1, "dt": 1, "figcaption": 1,
	"li": 1, "tbody": 1, "td": 1, "tfoot": 1, "th": 1, "thead": 1, "tr": 1,
}

// inline are formatting elements that mark a body as HTML without forcing
// line breaks. script and style are left out so that text mentioning
// them, such as a decoded "&lt;script&gt;", stays plain text.
var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "big": true, "cite": true,
	"code": true, "em": true, "font": true, "i": true, "img": true,
	"mark": true, "s": true, "small": true, "span": true, "strike": true,
	"strong": true, "sub": true, "sup": true, "u": true,
}

// documentTag matches tags that only appear in HTML documents.
var documentTag = regexp.MustCompile(`(?i)<(!doctype|html|head|body)[\s>]`)

// Normalize converts an HTML or plain-text body into line-oriented text.
// Script, style and noscript content is dropped, block elements become line
// breaks, every line is trimmed and runs of blank lines collapse to one.
//
// Only bodies with structural HTML are parsed. Plain text keeps its line
// structure, its entities and angle-bracketed URLs such as
// "<https://example.com>" untouched.
func Normalize(raw string) string {
	if !isMarkup(raw) {
		return collapseLines(raw)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil || len(doc.Nodes) == 0 {
		return collapseLines(raw)
	}
	doc.Find("script, style, noscript").Remove()

	var w textWriter
	for _, n := range doc.Nodes {
		w.walk(n)
	}
	return collapseLines(w.b.String())
}

// isMarkup reports whether raw has a document tag or a known block or
// inline element.
func isMarkup(raw string) bool {
	if !strings.Contains(raw, "<") {
		return false
	}
	if documentTag.MatchString(raw) {
		return true
	}
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if _, ok := breaks[tag]; ok || inline[tag] {
				return true
			}
		}
	}
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.b.WriteString(squash(n.Data))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	k := 0
	if n.Type == html.ElementNode {
		k = breaks[n.Data]
	}
	w.lineBreak(k)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	w.lineBreak(k)
}

// lineBreak makes the output end in at least n newlines, ignoring trailing
// spaces and tabs.
func (w *textWriter) lineBreak(n int) {
	s := w.b.String()
	have := 0
scan:
	for i := len(s) - 1; i >= 0 && have < n; i-- {
		switch s[i] {
		case '\n':
			have++
		case ' ', '\t':
		default:
			break scan
		}
	}
	for ; have < n; have++ {
		w.b.WriteByte('\n')
	}
}

// squash collapses whitespace inside HTML text, keeping a single space at
// either end when there was any.
func squash(s string) string {
	if s == "" {
		return s
	}
	inner := strings.Join(strings.Fields(s), " ")
	if inner == "" {
		return " "
	}
	if isSpace(s[0]) {
		inner = " " + inner
	}
	if isSpace(s[len(s)-1]) {
		inner += " "
	}
	return inner
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// collapseLines trims every line, keeps at most one blank line in a row
// and drops leading and trailing blank lines.
func collapseLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	out := make([]string, 0, strings.Count(s, "\n")+1)
	blank := true // suppresses leading blank lines
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
