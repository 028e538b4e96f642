package engine

import "strings"

// parseText renders plain text as a sequence of paragraph elements, split on
// blank lines.
func (e *AutoDetect) parseText(data []byte, h ContentHandler) error {
	if err := h.StartDocument(); err != nil {
		return err
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimRight(para, "\n")
		if para == "" {
			continue
		}
		if err := h.StartElement("p", nil); err != nil {
			return err
		}
		if err := h.Characters(para); err != nil {
			return err
		}
		if err := h.EndElement("p"); err != nil {
			return err
		}
	}
	return h.EndDocument()
}
