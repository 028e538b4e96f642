package parse

import (
	"context"
	"encoding/json"
	"os"

	"github.com/docparse/docparse/internal/common"
	"github.com/docparse/docparse/internal/storage"
)

// persist serializes the record to a temporary file as JSON and uploads it,
// returning the URI of the stored record. The temp file is removed on every
// path.
func (p *Parser) persist(ctx context.Context, result *Result) (string, error) {
	tmp, err := os.CreateTemp("", "dp-result-*.json")
	if err != nil {
		return "", common.NewAppError(CodePersistence, "create temp record file", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	encErr := enc.Encode(result)
	closeErr := tmp.Close()
	if encErr != nil {
		return "", common.NewAppError(CodePersistence, "serialize record", encErr)
	}
	if closeErr != nil {
		return "", common.NewAppError(CodePersistence, "flush record", closeErr)
	}

	uri, err := p.store.Put(ctx, tmp.Name())
	if err != nil {
		return "", common.NewAppError(CodePersistence, "upload record", err)
	}
	return uri, nil
}

// LoadResult reads a persisted record back from storage.
func LoadResult(ctx context.Context, store storage.Storage, uri string) (*Result, error) {
	rc, err := store.Get(ctx, uri)
	if err != nil {
		return nil, common.NewAppError(CodePersistence, "open record "+uri, err)
	}
	defer rc.Close()

	var result Result
	if err := json.NewDecoder(rc).Decode(&result); err != nil {
		return nil, common.NewAppError(CodePersistence, "decode record "+uri, err)
	}
	return &result, nil
}
