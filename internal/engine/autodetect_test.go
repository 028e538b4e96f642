package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainText(t *testing.T) {
	e := newTestEngine(Config{}, nil)
	h := &recordHandler{}
	md := NewMetadata()
	input := []byte("first paragraph\nstill first\n\nsecond paragraph\n")

	err := e.Parse(context.Background(), bytes.NewReader(input), h, md, Directives{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first paragraph\nstill first", "second paragraph"}, h.paragraphs())
	assert.Contains(t, md.Get("Content-Type"), "text/plain")
	assert.Equal(t, "46", md.Get("Content-Length"))
	assert.Equal(t, "start-doc", h.events[0])
	assert.Equal(t, "end-doc", h.events[len(h.events)-1])
}

func TestParseTextNormalizesCRLF(t *testing.T) {
	e := newTestEngine(Config{}, nil)
	h := &recordHandler{}

	err := e.parseText([]byte("one\r\n\r\ntwo"), h)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, h.paragraphs())
}

func TestParseHTML(t *testing.T) {
	e := newTestEngine(Config{}, nil)
	h := &recordHandler{}
	md := NewMetadata()
	input := []byte(`<!DOCTYPE html>
<html>
<head><title>Release Notes</title><style>p { color: red }</style></head>
<body>
<script>alert("nope")</script>
<h1>Heading</h1>
<p>Body text.</p>
<ul><li>item one</li></ul>
</body>
</html>`)

	err := e.Parse(context.Background(), bytes.NewReader(input), h, md, Directives{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Release Notes", md.Get("dc:title"))
	assert.Equal(t, []string{"Heading", "Body text.", "item one"}, h.paragraphs())
	assert.NotContains(t, h.text.String(), "alert")
	assert.NotContains(t, h.text.String(), "color: red")
	assert.Contains(t, h.events, "<h1>")
	assert.Contains(t, h.events, "<li>")
}

func TestParseHTMLBareBodyFallback(t *testing.T) {
	e := newTestEngine(Config{}, nil)
	h := &recordHandler{}

	err := e.parseHTML([]byte("<html><body>just some text</body></html>"), h, NewMetadata())
	require.NoError(t, err)
	assert.Equal(t, []string{"just some text"}, h.paragraphs())
}

func TestParseUnsupportedMediaType(t *testing.T) {
	e := newTestEngine(Config{}, nil)
	// An ELF header detects as a binary with no parser.
	input := []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00}

	err := e.Parse(context.Background(), bytes.NewReader(input), &recordHandler{}, NewMetadata(), Directives{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported media type")
}

func TestIsTextual(t *testing.T) {
	assert.True(t, isTextual(mimetype.Detect([]byte("plain words"))))
	assert.True(t, isTextual(mimetype.Detect([]byte(`{"key": "value"}`))))
	assert.False(t, isTextual(mimetype.Detect([]byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00})))
}

func TestDeclaredType(t *testing.T) {
	cases := map[string]string{
		"photo.png":  "image/png",
		"photo.JPG":  "image/jpeg",
		"scan.tiff":  "image/tiff",
		"report.pdf": "application/pdf",
		"notes.txt":  "text/plain",
		"index.html": "text/html",
		"bundle.zip": "application/zip",
		"noext":      "",
		"weird.xyz":  "",
	}
	for name, want := range cases {
		assert.Equal(t, want, declaredType(name), name)
	}
}
