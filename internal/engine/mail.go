package engine

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"
)

// parseMail renders an RFC 822 message: headers as metadata, the text body as
// content, and every attachment or inline part as an embedded object.
// Nameless parts are handed to the sink with an empty name.
func (e *AutoDetect) parseMail(data []byte, h ContentHandler, md *Metadata, emb EmbeddedSink) error {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	for _, header := range []string{"Subject", "From", "To", "Cc", "Date", "Message-Id"} {
		if v := env.GetHeader(header); v != "" {
			md.Set("Message:"+header, v)
		}
	}
	if subject := env.GetHeader("Subject"); subject != "" {
		md.Set("dc:title", subject)
	}

	body := env.Text
	if strings.TrimSpace(body) == "" && env.HTML != "" {
		// No plain-text alternative; fall back to the HTML part.
		doc, err := parseHTMLText(env.HTML)
		if err == nil {
			body = doc
		}
	}

	if err := h.StartDocument(); err != nil {
		return err
	}
	for _, para := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if strings.TrimSpace(para) == "" {
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

	if emb != nil {
		parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
		for _, part := range parts {
			if !emb.ShouldExtract(part.ContentType) {
				continue
			}
			if err := emb.Extract(bytes.NewReader(part.Content), part.FileName, part.ContentType); err != nil {
				return err
			}
		}
	}
	return h.EndDocument()
}
