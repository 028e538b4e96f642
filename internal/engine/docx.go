package engine

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// coreProps is the subset of OOXML docProps/core.xml worth surfacing.
// Field matching is by local name, so the dc:/dcterms: prefixes don't matter.
type coreProps struct {
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
	Creator  string `xml:"creator"`
	Keywords string `xml:"keywords"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

// parseDocx walks the OOXML word container: paragraphs from
// word/document.xml, core properties as metadata, and everything under
// word/media/ and word/embeddings/ as embedded objects.
func (e *AutoDetect) parseDocx(data []byte, h ContentHandler, md *Metadata, emb EmbeddedSink) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open docx container: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			docFile = f
		case "docProps/core.xml":
			if props, err := readZipFile(f); err == nil {
				setCoreProps(md, props)
			}
		}
	}
	if docFile == nil {
		return fmt.Errorf("missing word/document.xml")
	}

	if err := h.StartDocument(); err != nil {
		return err
	}

	rc, err := docFile.Open()
	if err != nil {
		return fmt.Errorf("open document.xml: %w", err)
	}
	err = emitWordParagraphs(rc, h)
	rc.Close()
	if err != nil {
		return err
	}

	if err := e.extractContainerParts(zr, h, emb, "word/media/", "word/embeddings/"); err != nil {
		return err
	}
	return h.EndDocument()
}

func setCoreProps(md *Metadata, raw []byte) {
	var props coreProps
	if err := xml.Unmarshal(raw, &props); err != nil {
		return
	}
	if props.Title != "" {
		md.Set("dc:title", props.Title)
	}
	if props.Subject != "" {
		md.Set("dc:subject", props.Subject)
	}
	if props.Creator != "" {
		md.Set("dc:creator", props.Creator)
	}
	if props.Keywords != "" {
		md.Set("meta:keyword", props.Keywords)
	}
	if props.Created != "" {
		md.Set("dcterms:created", props.Created)
	}
	if props.Modified != "" {
		md.Set("dcterms:modified", props.Modified)
	}
}

// emitWordParagraphs streams document.xml, turning each w:p into a paragraph
// event with the concatenated w:t runs.
func emitWordParagraphs(r io.Reader, h ContentHandler) error {
	dec := xml.NewDecoder(r)
	var para strings.Builder
	inPara := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
			case "t":
				var run string
				if err := dec.DecodeElement(&run, &t); err != nil {
					return fmt.Errorf("decode text run: %w", err)
				}
				para.WriteString(run)
			case "tab":
				para.WriteByte('\t')
			case "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inPara {
				inPara = false
				if text := para.String(); strings.TrimSpace(text) != "" {
					if err := h.StartElement("p", nil); err != nil {
						return err
					}
					if err := h.Characters(text); err != nil {
						return err
					}
					if err := h.EndElement("p"); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// extractContainerParts hands every zip entry under the given prefixes to the
// embedded sink, emitting an img placeholder for raster parts.
func (e *AutoDetect) extractContainerParts(zr *zip.Reader, h ContentHandler, emb EmbeddedSink, prefixes ...string) error {
	if emb == nil {
		return nil
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !hasAnyPrefix(f.Name, prefixes) {
			continue
		}
		name := path.Base(f.Name)
		if !emb.ShouldExtract(declaredType(name)) {
			continue
		}
		entry, err := readZipFile(f)
		if err != nil {
			return fmt.Errorf("read container part %q: %w", f.Name, err)
		}
		mt := mimetype.Detect(entry)
		if strings.HasPrefix(mt.String(), "image/") {
			if err := h.StartElement("img", map[string]string{"src": "embedded:" + name}); err != nil {
				return err
			}
			if err := h.EndElement("img"); err != nil {
				return err
			}
		}
		if err := emb.Extract(bytes.NewReader(entry), name, mt.String()); err != nil {
			return err
		}
	}
	return nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
