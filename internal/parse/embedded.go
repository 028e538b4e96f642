package parse

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/docparse/docparse/internal/common"
	"github.com/docparse/docparse/internal/storage"
)

// EmbeddedExtractor is the engine callback for embedded objects. One instance
// per invocation: it owns the unnamed-file counter, the embedded map under
// construction, and a scratch directory, and is never shared across
// invocations.
type EmbeddedExtractor struct {
	ctx     context.Context
	store   storage.Storage
	logger  *slog.Logger
	enabled bool
	workDir string

	fileCount int
	extracted map[string]string
}

func newEmbeddedExtractor(ctx context.Context, store storage.Storage, logger *slog.Logger, enabled bool) (*EmbeddedExtractor, error) {
	workDir, err := os.MkdirTemp("", "dp-embed-*")
	if err != nil {
		return nil, err
	}
	return &EmbeddedExtractor{
		ctx:       ctx,
		store:     store,
		logger:    logger,
		enabled:   enabled,
		workDir:   workDir,
		extracted: make(map[string]string),
	}, nil
}

// Close releases the scratch directory. Safe on every exit path.
func (x *EmbeddedExtractor) Close() {
	_ = os.RemoveAll(x.workDir)
}

// ShouldExtract tells the engine whether to read embedded objects at all.
func (x *EmbeddedExtractor) ShouldExtract(string) bool {
	return x.enabled
}

// Extract materializes one embedded object locally, uploads it, and records
// the resulting URI under the resolved name. Any I/O or upload failure is
// fatal to the whole invocation.
func (x *EmbeddedExtractor) Extract(r io.Reader, name, mediaType string) error {
	resolved := x.fileName(name, mediaType)
	x.logger.Debug("extracting embedded file", "name", resolved, "media_type", mediaType)

	tmp := filepath.Join(x.workDir, uuid.NewString()+filepath.Ext(resolved))
	f, err := os.Create(tmp)
	if err != nil {
		return common.NewAppError(CodeEmbeddedExtraction, "create temp file for "+resolved, err)
	}
	defer os.Remove(tmp)

	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return common.NewAppError(CodeEmbeddedExtraction, "copy embedded object "+resolved, copyErr)
	}
	if closeErr != nil {
		return common.NewAppError(CodeEmbeddedExtraction, "flush embedded object "+resolved, closeErr)
	}

	uri, err := x.store.Put(x.ctx, tmp)
	if err != nil {
		return common.NewAppError(CodeEmbeddedExtraction, "upload embedded object "+resolved, err)
	}

	// A later object resolving to the same name replaces the earlier entry.
	x.extracted[resolved] = uri
	return nil
}

// Extracted returns the embedded map built so far.
func (x *EmbeddedExtractor) Extracted() map[string]string {
	return x.extracted
}

// fileName resolves the stored name of an embedded object: declared names are
// stripped of path components and NUL bytes; objects without a usable name get
// file_<n> from the per-invocation counter. Names lacking an extension get one
// inferred from the detected media type when a mapping exists.
func (x *EmbeddedExtractor) fileName(name, mediaType string) string {
	name = strings.ReplaceAll(name, "\x00", " ")
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" {
		name = "file_" + strconv.Itoa(x.fileCount)
		x.fileCount++
	}

	if !strings.Contains(name, ".") && mediaType != "" {
		if mt := mimetype.Lookup(mediaType); mt != nil && mt.Extension() != "" {
			name += mt.Extension()
		} else {
			x.logger.Debug("no extension mapping", "name", name, "media_type", mediaType)
		}
	}
	return name
}
