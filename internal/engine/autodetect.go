package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Config holds the defaults the engine falls back to when a directive does not
// override them.
type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Magick    string // binary name or absolute path; if empty -> "magick"

	OCRLanguage string // default "eng"
	DPI         int    // rasterization DPI for scanned PDFs, default 300
	MaxPages    int    // 0 = no limit

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// AutoDetect sniffs the input's media type and dispatches to the matching
// format parser. Implements Engine.
type AutoDetect struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewAutoDetect(cfg Config, logger *slog.Logger) *AutoDetect {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Magick == "" {
		cfg.Magick = "magick"
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &AutoDetect{cfg: cfg, runner: execRunner{}, logger: logger}
}

const (
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeMail = "message/rfc822"
	mimeZip  = "application/zip"
	mimeHTML = "text/html"
	mimeText = "text/plain"
)

func (e *AutoDetect) Parse(ctx context.Context, r io.Reader, h ContentHandler, md *Metadata, d Directives, emb EmbeddedSink) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	mt := mimetype.Detect(data)
	md.Set("Content-Type", mt.String())
	md.Set("Content-Length", strconv.Itoa(len(data)))
	e.logger.Debug("detected input", "media_type", mt.String(), "bytes", len(data))

	switch {
	case mt.Is(mimePDF):
		return e.parsePDF(ctx, data, h, md, d, emb)
	case strings.HasPrefix(mt.String(), "image/"):
		return e.parseImage(ctx, data, h, md, d)
	case mt.Is(mimeDocx):
		return e.parseDocx(data, h, md, emb)
	case mt.Is(mimeXlsx):
		return e.parseXlsx(data, h, md, emb)
	case mt.Is(mimeMail):
		return e.parseMail(data, h, md, emb)
	case mt.Is(mimeZip):
		return e.parseArchive(data, h, md, emb)
	case mt.Is(mimeHTML):
		return e.parseHTML(data, h, md)
	case isTextual(mt):
		return e.parseText(data, h)
	default:
		return fmt.Errorf("unsupported media type %q", mt.String())
	}
}

func isTextual(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(mimeText) {
			return true
		}
	}
	return false
}

// declaredType guesses a media type from a filename, for the ShouldExtract
// pre-check that must happen before any bytes are read.
func declaredType(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	switch strings.ToLower(name[idx:]) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".pdf":
		return mimePDF
	case ".txt":
		return mimeText
	case ".html", ".htm":
		return mimeHTML
	case ".zip":
		return mimeZip
	default:
		return ""
	}
}
