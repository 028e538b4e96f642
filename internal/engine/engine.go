// Package engine provides the auto-detecting parsing engine: given a byte
// stream it renders content into a ContentHandler, records metadata, and
// reports every embedded object it decodes to an EmbeddedSink, synchronously,
// in document order.
package engine

import (
	"context"
	"io"
)

// OCRMode selects how optical character recognition participates in a parse.
type OCRMode string

const (
	OCRSkip     OCRMode = "SKIP"         // never run OCR
	OCROnly     OCRMode = "OCR_ONLY"     // OCR output replaces the text layer
	OCRWithText OCRMode = "OCR_AND_TEXT" // keep the text layer and append OCR output
)

// Directives are the per-invocation engine settings. Pure data, pre-validated
// by the caller.
type Directives struct {
	OCR         OCRMode
	OCRLanguage string

	// ImagePreprocessing nil means use the engine default; a non-nil value
	// forces preprocessing on or off.
	ImagePreprocessing *bool

	// ExtractInlineImages treats raster images embedded in page content as
	// embeddable objects. UniqueInlineImagesOnly extracts each distinct image
	// once even when it appears on several pages.
	ExtractInlineImages    bool
	UniqueInlineImagesOnly bool
}

// ContentHandler receives rendering events from the engine. Implementations
// decide what to keep: plain characters, tagged markup, or both.
type ContentHandler interface {
	StartDocument() error
	StartElement(name string, attrs map[string]string) error
	Characters(text string) error
	EndElement(name string) error
	EndDocument() error
}

// EmbeddedSink is called once per embedded object, before the outer parse
// completes. When ShouldExtract returns false the engine skips the object's
// bytes entirely.
type EmbeddedSink interface {
	ShouldExtract(mediaType string) bool
	Extract(r io.Reader, name string, mediaType string) error
}

// Engine decodes one document.
type Engine interface {
	Parse(ctx context.Context, r io.Reader, h ContentHandler, md *Metadata, d Directives, emb EmbeddedSink) error
}
