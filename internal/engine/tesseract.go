package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var reBoxNoise = regexp.MustCompile(`(?m)^[|_\-=~\x60'.]{3,}$`)

// tesseractOCR runs tesseract over one image file and returns the recognized text.
func (e *AutoDetect) tesseractOCR(ctx context.Context, path string, d Directives) (string, error) {
	lang := d.OCRLanguage
	if lang == "" {
		lang = e.cfg.OCRLanguage
	}

	args := []string{path, "stdout", "-l", lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}

	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// preprocessImage rewrites an image with orientation and skew corrected,
// returning the path of the corrected copy and a cleanup func. Only invoked
// when the preprocessing directive is explicitly enabled.
func (e *AutoDetect) preprocessImage(ctx context.Context, in string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "dp-pre-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	// magick <in> -auto-orient -deskew 40% <out>
	if _, errb, err2 := e.runner.Run(ctx, e.cfg.Magick, in, "-auto-orient", "-deskew", "40%", out); err2 != nil {
		return "", cleanup, fmt.Errorf("magick preprocess failed: %w (%s)", err2, truncate(string(errb), 512))
	}
	if _, statErr := os.Stat(out); statErr != nil {
		return "", cleanup, fmt.Errorf("preprocessing produced no output: %v", statErr)
	}
	return out, cleanup, nil
}

// ocrImageFile applies the optional preprocessing step then OCR.
func (e *AutoDetect) ocrImageFile(ctx context.Context, path string, d Directives) (string, error) {
	if d.ImagePreprocessing != nil && *d.ImagePreprocessing {
		pre, cleanup, err := e.preprocessImage(ctx, path)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			return "", err
		}
		path = pre
	}
	return e.tesseractOCR(ctx, path, d)
}
