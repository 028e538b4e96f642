package parse

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docparse/docparse/internal/common"
	"github.com/docparse/docparse/internal/engine"
	"github.com/docparse/docparse/internal/storage"
)

// scriptEngine replays a fixed event sequence against the handler and offers
// one embedded object to the sink, the way a container parser would.
type scriptEngine struct {
	paragraphs []string
	embedded   map[string]string
	calls      int
}

func (e *scriptEngine) Parse(ctx context.Context, r io.Reader, h engine.ContentHandler, md *engine.Metadata, d engine.Directives, emb engine.EmbeddedSink) error {
	e.calls++
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	md.Set("Content-Type", "text/plain")
	md.Add("dc:creator", "alice")
	md.Add("dc:creator", "bob")

	if err := h.StartDocument(); err != nil {
		return err
	}
	for _, p := range e.paragraphs {
		if err := h.StartElement("p", nil); err != nil {
			return err
		}
		if err := h.Characters(p); err != nil {
			return err
		}
		if err := h.EndElement("p"); err != nil {
			return err
		}
	}
	for name, body := range e.embedded {
		if !emb.ShouldExtract("application/octet-stream") {
			continue
		}
		if err := emb.Extract(strings.NewReader(body), name, "text/plain"); err != nil {
			return err
		}
	}
	return h.EndDocument()
}

func newTestParser(t *testing.T, eng engine.Engine) (*Parser, *storage.MemStore, string) {
	t.Helper()
	store := storage.NewMemStore()
	uri := store.PutBytes("input.txt", []byte("raw input"))
	return NewParser(eng, store, nil, nil), store, uri
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestRunInlineResult(t *testing.T) {
	eng := &scriptEngine{paragraphs: []string{"hello", "world"}}
	p, _, uri := newTestParser(t, eng)

	out, err := p.Run(context.Background(), Options{
		From:        uri,
		ContentType: ContentTypeText,
		Store:       boolPtr(false),
	})
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.Empty(t, out.URI)

	assert.Equal(t, "hello\nworld\n", out.Result.Content)
	assert.Equal(t, "text/plain", out.Result.Metadata["Content-Type"])
	assert.Equal(t, []string{"alice", "bob"}, out.Result.Metadata["dc:creator"])
	assert.Empty(t, out.Result.Embedded)
	assert.Equal(t, 1, eng.calls)
}

func TestRunStoredResultRoundTrips(t *testing.T) {
	eng := &scriptEngine{paragraphs: []string{"hello"}}
	p, store, uri := newTestParser(t, eng)

	out, err := p.Run(context.Background(), Options{From: uri, ContentType: ContentTypeText})
	require.NoError(t, err)
	assert.Nil(t, out.Result)
	require.NotEmpty(t, out.URI)

	loaded, err := LoadResult(context.Background(), store, out.URI)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", loaded.Content)
	assert.Equal(t, "text/plain", loaded.Metadata["Content-Type"])
}

func TestRunEmbeddedDisabledYieldsEmptyMap(t *testing.T) {
	eng := &scriptEngine{embedded: map[string]string{"attachment.txt": "x"}}
	p, store, uri := newTestParser(t, eng)
	before := store.Len()

	out, err := p.Run(context.Background(), Options{
		From:  uri,
		Store: boolPtr(false),
	})
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.NotNil(t, out.Result.Embedded)
	assert.Empty(t, out.Result.Embedded)
	// Nothing was uploaded either.
	assert.Equal(t, before, store.Len())
}

func TestRunEmbeddedEnabled(t *testing.T) {
	eng := &scriptEngine{embedded: map[string]string{"attachment.txt": "x"}}
	p, _, uri := newTestParser(t, eng)

	out, err := p.Run(context.Background(), Options{
		From:            uri,
		ExtractEmbedded: true,
		Store:           boolPtr(false),
	})
	require.NoError(t, err)
	require.Len(t, out.Result.Embedded, 1)
	assert.Contains(t, out.Result.Embedded, "attachment.txt")
}

func TestRunLimitAbortsWholeParse(t *testing.T) {
	eng := &scriptEngine{paragraphs: []string{strings.Repeat("x", 100)}}
	p, _, uri := newTestParser(t, eng)

	out, err := p.Run(context.Background(), Options{
		From:            uri,
		ContentType:     ContentTypeText,
		CharactersLimit: intPtr(10),
	})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, common.HasCode(err, CodeOutputLimit))
	assert.ErrorIs(t, err, ErrOutputLimitExceeded)
}

func TestRunContentModesDiffer(t *testing.T) {
	ctx := context.Background()

	run := func(ct ContentType) string {
		eng := &scriptEngine{paragraphs: []string{"hello"}}
		p, _, uri := newTestParser(t, eng)
		out, err := p.Run(ctx, Options{From: uri, ContentType: ct, Store: boolPtr(false)})
		require.NoError(t, err)
		return out.Result.Content
	}

	assert.Equal(t, "hello\n", run(ContentTypeText))
	assert.Equal(t, "<p>hello</p>\n", run(ContentTypeXHTMLNoHeader))
	full := run(ContentTypeXHTML)
	assert.Contains(t, full, "<p>hello</p>")
	assert.Contains(t, full, `<html xmlns="http://www.w3.org/1999/xhtml">`)
}

func TestRunConfigurationErrorBeforeEngine(t *testing.T) {
	eng := &scriptEngine{}
	p, _, _ := newTestParser(t, eng)

	_, err := p.Run(context.Background(), Options{From: ""})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, CodeConfiguration))
	assert.Zero(t, eng.calls)
}

func TestRunMissingInput(t *testing.T) {
	p, _, _ := newTestParser(t, &scriptEngine{})

	_, err := p.Run(context.Background(), Options{From: "mem://no-such-object"})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, CodeEngine))
}

func TestRunEmbeddedUploadFailureIsFatal(t *testing.T) {
	eng := &scriptEngine{embedded: map[string]string{"attachment.txt": "x"}}
	store := storage.NewMemStore()
	uri := store.PutBytes("input.txt", []byte("raw"))
	store.PutErr = errors.New("bucket unavailable")
	p := NewParser(eng, store, nil, nil)

	_, err := p.Run(context.Background(), Options{
		From:            uri,
		ExtractEmbedded: true,
		Store:           boolPtr(false),
	})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, CodeEmbeddedExtraction))
}

type failingEngine struct{}

func (failingEngine) Parse(context.Context, io.Reader, engine.ContentHandler, *engine.Metadata, engine.Directives, engine.EmbeddedSink) error {
	return errors.New("corrupt stream")
}

func TestRunEngineFailure(t *testing.T) {
	p, _, uri := newTestParser(t, failingEngine{})

	_, err := p.Run(context.Background(), Options{From: uri})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, CodeEngine))
}

func TestRunRepeatableNaming(t *testing.T) {
	// Two runs over the same input resolve embedded names identically.
	for range 2 {
		eng := &scriptEngine{embedded: map[string]string{"": "unnamed"}}
		p, _, uri := newTestParser(t, eng)
		out, err := p.Run(context.Background(), Options{
			From:            uri,
			ExtractEmbedded: true,
			Store:           boolPtr(false),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Result.Embedded, "file_0")
	}
}
