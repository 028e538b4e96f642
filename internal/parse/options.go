package parse

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docparse/docparse/internal/common"
)

// ContentType selects the rendering mode for extracted content.
type ContentType string

const (
	ContentTypeText          ContentType = "TEXT"
	ContentTypeXHTML         ContentType = "XHTML"
	ContentTypeXHTMLNoHeader ContentType = "XHTML_NO_HEADER"
)

// OCRStrategy selects whether/how OCR participates in the parse.
type OCRStrategy string

const (
	OCRStrategyNoOCR      OCRStrategy = "NO_OCR"
	OCRStrategyOCROnly    OCRStrategy = "OCR_ONLY"
	OCRStrategyOCRAndText OCRStrategy = "OCR_AND_TEXT_EXTRACTION"
)

// OCROptions are the OCR knobs of one invocation.
type OCROptions struct {
	Strategy OCRStrategy `json:"strategy,omitempty"`
	// EnableImagePreprocessing nil means engine default, not disabled.
	EnableImagePreprocessing *bool  `json:"enableImagePreprocessing,omitempty"`
	Language                 string `json:"language,omitempty"`
}

// Options is the configuration surface of one parse invocation. String fields
// may be template expressions; they are resolved exactly once before the run
// begins.
type Options struct {
	From            string      `json:"from"`
	ExtractEmbedded bool        `json:"extractEmbedded,omitempty"`
	ContentType     ContentType `json:"contentType,omitempty"`
	OCROptions      OCROptions  `json:"ocrOptions,omitempty"`
	Store           *bool       `json:"store,omitempty"`
	CharactersLimit *int        `json:"charactersLimit,omitempty"`
}

// resolvedOptions are plain values for the remainder of the invocation.
type resolvedOptions struct {
	From               string
	ExtractEmbedded    bool
	ContentType        ContentType
	OCRStrategy        OCRStrategy
	OCRLanguage        string
	ImagePreprocessing *bool
	Store              bool
	CharactersLimit    int
}

const optionsSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["from"],
  "properties": {
    "from": {"type": "string", "minLength": 1},
    "extractEmbedded": {"type": "boolean"},
    "contentType": {"enum": ["TEXT", "XHTML", "XHTML_NO_HEADER"]},
    "ocrOptions": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "strategy": {"enum": ["NO_OCR", "OCR_ONLY", "OCR_AND_TEXT_EXTRACTION"]},
        "enableImagePreprocessing": {"type": "boolean"},
        "language": {"type": "string"}
      }
    },
    "store": {"type": "boolean"},
    "charactersLimit": {"type": "integer", "minimum": -1}
  }
}`

var optionsSchema = jsonschema.MustCompileString("options.json", optionsSchemaJSON)

// DecodeOptions validates a raw JSON options payload against the schema and
// unmarshals it. Any violation is a configuration error.
func DecodeOptions(raw []byte) (Options, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Options{}, common.NewAppError(CodeConfiguration, "options payload is not valid JSON", err)
	}
	if err := optionsSchema.Validate(probe); err != nil {
		return Options{}, common.NewAppError(CodeConfiguration, "options payload failed validation", err)
	}
	var opts Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return Options{}, common.NewAppError(CodeConfiguration, "decode options", err)
	}
	return opts, nil
}

// Renderer resolves templated option values once, before a run begins. The
// workflow runtime supplies a real implementation.
type Renderer interface {
	Render(expr string) (string, error)
}

// IdentityRenderer passes values through unchanged.
type IdentityRenderer struct{}

func (IdentityRenderer) Render(expr string) (string, error) { return expr, nil }

// resolve renders templated fields and applies defaults. Fails fast, before
// any stream is opened.
func (p *Parser) resolve(o Options) (resolvedOptions, error) {
	from, err := p.renderer.Render(o.From)
	if err != nil {
		return resolvedOptions{}, common.NewAppError(CodeConfiguration, "render 'from'", err)
	}
	if strings.TrimSpace(from) == "" {
		return resolvedOptions{}, common.NewAppError(CodeConfiguration, "'from' is required", nil)
	}

	ct := o.ContentType
	if ct == "" {
		ct = ContentTypeXHTML
	}
	switch ct {
	case ContentTypeText, ContentTypeXHTML, ContentTypeXHTMLNoHeader:
	default:
		return resolvedOptions{}, common.NewAppError(CodeConfiguration, "unknown contentType "+string(ct), nil)
	}

	strategy := o.OCROptions.Strategy
	if strategy == "" {
		strategy = OCRStrategyNoOCR
	}
	switch strategy {
	case OCRStrategyNoOCR, OCRStrategyOCROnly, OCRStrategyOCRAndText:
	default:
		return resolvedOptions{}, common.NewAppError(CodeConfiguration, "unknown ocr strategy "+string(strategy), nil)
	}

	lang, err := p.renderer.Render(o.OCROptions.Language)
	if err != nil {
		return resolvedOptions{}, common.NewAppError(CodeConfiguration, "render 'ocrOptions.language'", err)
	}

	store := true
	if o.Store != nil {
		store = *o.Store
	}
	limit := -1
	if o.CharactersLimit != nil {
		limit = *o.CharactersLimit
		if limit < -1 {
			return resolvedOptions{}, common.NewAppError(CodeConfiguration, "charactersLimit must be >= -1", nil)
		}
	}

	return resolvedOptions{
		From:               from,
		ExtractEmbedded:    o.ExtractEmbedded,
		ContentType:        ct,
		OCRStrategy:        strategy,
		OCRLanguage:        lang,
		ImagePreprocessing: o.OCROptions.EnableImagePreprocessing,
		Store:              store,
		CharactersLimit:    limit,
	}, nil
}
