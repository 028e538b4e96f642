package parse

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/docparse/docparse/internal/engine"
)

// Handler accumulates rendered content in one of the three content modes.
type Handler interface {
	engine.ContentHandler
	String() string
}

// NewHandler builds the content sink for an invocation. TEXT and
// XHTML_NO_HEADER honor the character limit; full XHTML output is unbounded.
// limit -1 disables the limit.
func NewHandler(ct ContentType, limit int) Handler {
	switch ct {
	case ContentTypeText:
		return &textHandler{limit: limit}
	case ContentTypeXHTMLNoHeader:
		return &markupHandler{limit: limit}
	default:
		return &markupHandler{limit: -1, envelope: true}
	}
}

// blockElements get a newline separator in plain-text rendering.
var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"li": {}, "blockquote": {}, "pre": {}, "td": {}, "th": {}, "tr": {}, "table": {},
}

// textHandler keeps characters only.
type textHandler struct {
	b     strings.Builder
	count int
	limit int
}

func (t *textHandler) StartDocument() error                           { return nil }
func (t *textHandler) StartElement(string, map[string]string) error   { return nil }
func (t *textHandler) Characters(s string) error                      { return t.write(s) }
func (t *textHandler) EndDocument() error                             { return nil }
func (t *textHandler) String() string                                 { return t.b.String() }

func (t *textHandler) EndElement(name string) error {
	if _, ok := blockElements[name]; ok {
		return t.write("\n")
	}
	return nil
}

func (t *textHandler) write(s string) error {
	n := utf8.RuneCountInString(s)
	if t.limit >= 0 && t.count+n > t.limit {
		for i, r := range []rune(s) {
			if t.count+i >= t.limit {
				break
			}
			t.b.WriteRune(r)
		}
		t.count = t.limit
		return ErrOutputLimitExceeded
	}
	t.b.WriteString(s)
	t.count += n
	return nil
}

const xhtmlProlog = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
	`<html xmlns="http://www.w3.org/1999/xhtml">` + "\n" +
	"<head>\n<title></title>\n</head>\n<body>\n"

// markupHandler renders tagged markup. With envelope set it wraps the content
// in the outer XHTML document (and is never bounded); without it only the body
// content is produced, counted against the limit.
type markupHandler struct {
	b        strings.Builder
	count    int
	limit    int
	envelope bool
}

func (m *markupHandler) StartDocument() error {
	if m.envelope {
		m.b.WriteString(xhtmlProlog)
	}
	return nil
}

func (m *markupHandler) EndDocument() error {
	if m.envelope {
		m.b.WriteString("</body></html>\n")
	}
	return nil
}

func (m *markupHandler) StartElement(name string, attrs map[string]string) error {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(name)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeMarkup(attrs[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	return m.write(sb.String())
}

func (m *markupHandler) EndElement(name string) error {
	sep := ""
	if _, ok := blockElements[name]; ok {
		sep = "\n"
	}
	return m.write("</" + name + ">" + sep)
}

func (m *markupHandler) Characters(s string) error {
	return m.write(escapeMarkup(s))
}

func (m *markupHandler) String() string { return m.b.String() }

func (m *markupHandler) write(s string) error {
	n := utf8.RuneCountInString(s)
	if m.limit >= 0 && m.count+n > m.limit {
		for i, r := range []rune(s) {
			if m.count+i >= m.limit {
				break
			}
			m.b.WriteRune(r)
		}
		m.count = m.limit
		return ErrOutputLimitExceeded
	}
	m.b.WriteString(s)
	m.count += n
	return nil
}

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}
