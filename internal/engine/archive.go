package engine

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
)

// parseArchive lists a zip archive's entries as content and hands each entry
// to the embedded sink, in archive order.
func (e *AutoDetect) parseArchive(data []byte, h ContentHandler, md *Metadata, emb EmbeddedSink) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	entries := 0
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			entries++
		}
	}
	md.Set("zip:EntryCount", strconv.Itoa(entries))

	if err := h.StartDocument(); err != nil {
		return err
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := h.StartElement("p", map[string]string{"class": "archive-entry"}); err != nil {
			return err
		}
		if err := h.Characters(f.Name); err != nil {
			return err
		}
		if err := h.EndElement("p"); err != nil {
			return err
		}

		if emb == nil || !emb.ShouldExtract(declaredType(f.Name)) {
			continue
		}
		entry, err := readZipFile(f)
		if err != nil {
			return fmt.Errorf("read archive entry %q: %w", f.Name, err)
		}
		mt := mimetype.Detect(entry)
		if err := emb.Extract(bytes.NewReader(entry), f.Name, mt.String()); err != nil {
			return err
		}
	}
	return h.EndDocument()
}
