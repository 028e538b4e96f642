package engine

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlBlockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, td, th"

// parseHTMLText strips an HTML fragment down to its visible text.
func parseHTMLText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text()), nil
}

// parseHTML extracts the title and block-level text, dropping scripts and styles.
func (e *AutoDetect) parseHTML(data []byte, h ContentHandler, md *Metadata) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		md.Set("dc:title", title)
	}
	doc.Find("script, style, noscript").Remove()

	type block struct {
		tag  string
		text string
	}
	var blocks []block
	doc.Find("body").Find(htmlBlockSelector).Each(func(_ int, sel *goquery.Selection) {
		// Skip containers whose text is fully covered by nested blocks.
		if sel.Find(htmlBlockSelector).Length() > 0 {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, block{tag: goquery.NodeName(sel), text: text})
		}
	})
	if len(blocks) == 0 {
		if text := strings.TrimSpace(doc.Find("body").Text()); text != "" {
			blocks = append(blocks, block{tag: "p", text: text})
		}
	}

	if err := h.StartDocument(); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := h.StartElement(b.tag, nil); err != nil {
			return err
		}
		if err := h.Characters(b.text); err != nil {
			return err
		}
		if err := h.EndElement(b.tag); err != nil {
			return err
		}
	}
	return h.EndDocument()
}
