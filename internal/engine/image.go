package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// parseImage records image dimensions and, when an OCR mode is requested, runs
// the recognized text through the handler. With OCR skipped the content stays
// empty and only metadata is produced.
func (e *AutoDetect) parseImage(ctx context.Context, data []byte, h ContentHandler, md *Metadata, d Directives) error {
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		md.Set("Image-Width", strconv.Itoa(cfg.Width))
		md.Set("Image-Height", strconv.Itoa(cfg.Height))
		md.Set("Image-Format", format)
	}

	if err := h.StartDocument(); err != nil {
		return err
	}

	if d.OCR != OCRSkip {
		tmpDir, err := os.MkdirTemp("", "dp-img-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmpDir)

		path := filepath.Join(tmpDir, "input"+extForMIME(md.Get("Content-Type")))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return err
		}

		text, err := e.ocrImageFile(ctx, path, d)
		if err != nil {
			return fmt.Errorf("image ocr: %w", err)
		}
		if strings.TrimSpace(text) != "" {
			md.Set("X-Parsed-By", "ocr")
			if err := h.StartElement("div", map[string]string{"class": "ocr"}); err != nil {
				return err
			}
			if err := h.Characters(text); err != nil {
				return err
			}
			if err := h.EndElement("div"); err != nil {
				return err
			}
		}
	}
	return h.EndDocument()
}

func extForMIME(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/tiff":
		return ".tif"
	default:
		return ".img"
	}
}
