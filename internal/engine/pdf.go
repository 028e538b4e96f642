package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/cli"
)

// parsePDF combines the digital text layer with optional page OCR, then pulls
// file attachments and inline images out as embedded objects.
func (e *AutoDetect) parsePDF(ctx context.Context, data []byte, h ContentHandler, md *Metadata, d Directives, emb EmbeddedSink) error {
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}
	pages := rd.NumPage()
	md.Set("xmpTPg:NPages", strconv.Itoa(pages))

	tmpDir, err := os.MkdirTemp("", "dp-pdf-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)
	inFile := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(inFile, data, 0o600); err != nil {
		return err
	}

	pageTexts := make([]string, pages)
	if d.OCR != OCROnly {
		fonts := make(map[string]*pdf.Font)
		for i := 1; i <= pages; i++ {
			p := rd.Page(i)
			if p.V.IsNull() {
				continue
			}
			for _, name := range p.Fonts() {
				if _, ok := fonts[name]; !ok {
					f2 := p.Font(name)
					fonts[name] = &f2
				}
			}
			text, err := p.GetPlainText(fonts)
			if err != nil {
				e.logger.Warn("pdf text layer failed", "page", i, "error", err)
				continue
			}
			pageTexts[i-1] = strings.TrimSpace(text)
		}
	}

	if d.OCR != OCRSkip {
		ocrTexts, err := e.pdfOCR(ctx, inFile, d)
		if err != nil {
			return err
		}
		for i, txt := range ocrTexts {
			if i >= len(pageTexts) {
				pageTexts = append(pageTexts, txt)
				continue
			}
			switch {
			case pageTexts[i] == "":
				pageTexts[i] = txt
			case txt != "":
				pageTexts[i] += "\n" + txt
			}
		}
	}

	if err := h.StartDocument(); err != nil {
		return err
	}
	for _, txt := range pageTexts {
		if err := h.StartElement("div", map[string]string{"class": "page"}); err != nil {
			return err
		}
		if txt != "" {
			if err := h.Characters(txt); err != nil {
				return err
			}
		}
		if err := h.EndElement("div"); err != nil {
			return err
		}
	}

	if emb != nil && emb.ShouldExtract(mimePDF) {
		if err := e.extractPDFAttachments(inFile, tmpDir, emb); err != nil {
			return err
		}
		if d.ExtractInlineImages {
			if err := e.extractPDFImages(inFile, tmpDir, h, d, emb); err != nil {
				return err
			}
		}
	}
	return h.EndDocument()
}

// pdfOCR rasterizes every page with pdftoppm and OCRs each rendering,
// returning one text per page. Adapted to whatever language and preprocessing
// the directives ask for. Per-page OCR failures are logged, not fatal.
func (e *AutoDetect) pdfOCR(ctx context.Context, inFile string, d Directives) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "dp-pp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", inFile, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortByPageNumber(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	texts := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, err := e.ocrImageFile(ctx, img, d)
		if err != nil {
			e.logger.Warn("page ocr failed", "image", filepath.Base(img), "error", err)
			texts = append(texts, "")
			continue
		}
		texts = append(texts, strings.TrimSpace(txt))
	}
	return texts, nil
}

var rePageNumber = regexp.MustCompile(`-(\d+)\.png$`)

func sortByPageNumber(paths []string) {
	pageOf := func(p string) int {
		m := rePageNumber.FindStringSubmatch(p)
		if m == nil {
			return 0
		}
		n, _ := strconv.Atoi(m[1])
		return n
	}
	sort.Slice(paths, func(i, j int) bool { return pageOf(paths[i]) < pageOf(paths[j]) })
}

func (e *AutoDetect) extractPDFAttachments(inFile, tmpDir string, emb EmbeddedSink) error {
	names, err := cli.ListAttachmentsFile(inFile, nil)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	outDir := filepath.Join(tmpDir, "attachments")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := api.ExtractAttachmentsFile(inFile, outDir, nil, nil); err != nil {
		return fmt.Errorf("extract attachments: %w", err)
	}
	return e.emitExtractedFiles(outDir, nil, Directives{}, emb)
}

func (e *AutoDetect) extractPDFImages(inFile, tmpDir string, h ContentHandler, d Directives, emb EmbeddedSink) error {
	outDir := filepath.Join(tmpDir, "images")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := api.ExtractImagesFile(inFile, outDir, nil, nil); err != nil {
		return fmt.Errorf("extract inline images: %w", err)
	}
	return e.emitExtractedFiles(outDir, h, d, emb)
}

// emitExtractedFiles walks a directory pdfcpu extracted into and feeds every
// file to the embedded sink in name order. When a handler is given, raster
// files also get an img placeholder element; duplicate content is skipped when
// the unique-only directive is set.
func (e *AutoDetect) emitExtractedFiles(dir string, h ContentHandler, d Directives, emb EmbeddedSink) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if d.UniqueInlineImagesOnly {
			digest := sha256.Sum256(data)
			key := hex.EncodeToString(digest[:])
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		mt := mimetype.Detect(data)
		if h != nil && strings.HasPrefix(mt.String(), "image/") {
			if err := h.StartElement("img", map[string]string{"src": "embedded:" + entry.Name()}); err != nil {
				return err
			}
			if err := h.EndElement("img"); err != nil {
				return err
			}
		}
		if err := emb.Extract(bytes.NewReader(data), entry.Name(), mt.String()); err != nil {
			return err
		}
	}
	return nil
}
