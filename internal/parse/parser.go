// Package parse orchestrates one document-parse invocation: configuration
// resolution, content-handler selection, engine dispatch, embedded-object
// extraction, and assembly of the final record.
package parse

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/docparse/docparse/internal/common"
	"github.com/docparse/docparse/internal/engine"
	"github.com/docparse/docparse/internal/storage"
)

// Result is the assembled extraction record: rendered content, the metadata
// the engine recorded, and the embedded-object map. Built once per
// invocation, then immutable.
type Result struct {
	Content  string            `json:"content"`
	Metadata map[string]any    `json:"metadata"`
	Embedded map[string]string `json:"embedded"`
}

// Output is the invocation outcome: either the record inline or a pointer to
// the persisted record, never both.
type Output struct {
	Result *Result `json:"result,omitempty"`
	URI    string  `json:"uri,omitempty"`
}

// Parser runs parse invocations. Stateless itself; all per-invocation state
// lives in values created inside Run, so concurrent invocations share
// nothing.
type Parser struct {
	engine   engine.Engine
	store    storage.Storage
	renderer Renderer
	logger   *slog.Logger
}

func NewParser(eng engine.Engine, store storage.Storage, renderer Renderer, logger *slog.Logger) *Parser {
	if renderer == nil {
		renderer = IdentityRenderer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{engine: eng, store: store, renderer: renderer, logger: logger}
}

// Run executes one invocation end to end. Every failure is terminal: no
// retries, no partial records.
func (p *Parser) Run(ctx context.Context, opts Options) (*Output, error) {
	resolved, err := p.resolve(opts)
	if err != nil {
		return nil, err
	}

	handler := NewHandler(resolved.ContentType, resolved.CharactersLimit)
	directives := buildDirectives(resolved)
	extractor, err := newEmbeddedExtractor(ctx, p.store, p.logger, resolved.ExtractEmbedded)
	if err != nil {
		return nil, common.NewAppError(CodeEmbeddedExtraction, "create scratch dir", err)
	}
	defer extractor.Close()

	input, err := p.store.Get(ctx, resolved.From)
	if err != nil {
		return nil, common.NewAppError(CodeEngine, "open input "+resolved.From, err)
	}

	md := engine.NewMetadata()
	parseErr := p.engine.Parse(ctx, input, handler, md, directives, extractor)
	if closeErr := input.Close(); closeErr != nil {
		p.logger.Warn("close input", "uri", resolved.From, "error", closeErr)
	}
	if parseErr != nil {
		return nil, classifyParseError(parseErr)
	}

	result := &Result{
		Content:  handler.String(),
		Metadata: md.Map(),
		Embedded: extractor.Extracted(),
	}
	p.logger.Info("parse complete",
		"source", resolved.From,
		"content_chars", utf8.RuneCountInString(result.Content),
		"metadata_keys", len(result.Metadata),
		"embedded", len(result.Embedded),
	)

	if !resolved.Store {
		return &Output{Result: result}, nil
	}
	uri, err := p.persist(ctx, result)
	if err != nil {
		return nil, err
	}
	return &Output{URI: uri}, nil
}

// classifyParseError maps an engine failure onto the error taxonomy. Embedded
// extraction errors already carry their code; a limit abort gets its own
// code; everything else is an engine failure.
func classifyParseError(err error) error {
	if errors.Is(err, ErrOutputLimitExceeded) {
		return common.NewAppError(CodeOutputLimit, "rendered content exceeds charactersLimit", err)
	}
	if common.HasCode(err, CodeEmbeddedExtraction) {
		return err
	}
	return common.NewAppError(CodeEngine, "parse failed", err)
}
