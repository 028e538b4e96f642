package engine

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// parseXlsx renders each sheet as a div of row paragraphs (cells joined by
// tabs). Workbook properties land in metadata; xl/media/ parts are embedded
// objects.
func (e *AutoDetect) parseXlsx(data []byte, h ContentHandler, md *Metadata, emb EmbeddedSink) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	md.Set("xlsx:SheetCount", strconv.Itoa(len(sheets)))
	if props, err := f.GetDocProps(); err == nil && props != nil {
		if props.Title != "" {
			md.Set("dc:title", props.Title)
		}
		if props.Creator != "" {
			md.Set("dc:creator", props.Creator)
		}
	}

	if err := h.StartDocument(); err != nil {
		return err
	}
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if err := h.StartElement("div", map[string]string{"class": "sheet", "name": sheet}); err != nil {
			return err
		}
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if line == "" {
				continue
			}
			if err := h.StartElement("p", nil); err != nil {
				return err
			}
			if err := h.Characters(line); err != nil {
				return err
			}
			if err := h.EndElement("p"); err != nil {
				return err
			}
		}
		if err := h.EndElement("div"); err != nil {
			return err
		}
	}

	// The workbook is itself a zip container; media parts live under xl/media/.
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		if err := e.extractContainerParts(zr, h, emb, "xl/media/"); err != nil {
			return err
		}
	}
	return h.EndDocument()
}
