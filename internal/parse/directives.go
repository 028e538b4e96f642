package parse

import "github.com/docparse/docparse/internal/engine"

// buildDirectives maps resolved invocation settings onto concrete engine
// directives. Pure; all fields are pre-validated.
//
// Inline-image extraction follows the embedded-extraction toggle, and when
// enabled duplicate inline images are extracted once only.
func buildDirectives(o resolvedOptions) engine.Directives {
	d := engine.Directives{
		OCRLanguage:            o.OCRLanguage,
		ImagePreprocessing:     o.ImagePreprocessing,
		ExtractInlineImages:    o.ExtractEmbedded,
		UniqueInlineImagesOnly: o.ExtractEmbedded,
	}
	switch o.OCRStrategy {
	case OCRStrategyOCROnly:
		d.OCR = engine.OCROnly
	case OCRStrategyOCRAndText:
		d.OCR = engine.OCRWithText
	default:
		d.OCR = engine.OCRSkip
	}
	return d
}
