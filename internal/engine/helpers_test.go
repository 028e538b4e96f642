package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
)

// recordHandler keeps every event for assertions.
type recordHandler struct {
	events []string
	text   strings.Builder
	chars  []string
}

func (r *recordHandler) StartDocument() error {
	r.events = append(r.events, "start-doc")
	return nil
}

func (r *recordHandler) StartElement(name string, attrs map[string]string) error {
	ev := "<" + name
	if src, ok := attrs["src"]; ok {
		ev += " src=" + src
	}
	if class, ok := attrs["class"]; ok {
		ev += " class=" + class
	}
	r.events = append(r.events, ev+">")
	return nil
}

func (r *recordHandler) Characters(s string) error {
	r.events = append(r.events, "chars")
	r.chars = append(r.chars, s)
	r.text.WriteString(s)
	r.text.WriteByte('\n')
	return nil
}

func (r *recordHandler) EndElement(name string) error {
	r.events = append(r.events, "</"+name+">")
	return nil
}

func (r *recordHandler) EndDocument() error {
	r.events = append(r.events, "end-doc")
	return nil
}

func (r *recordHandler) paragraphs() []string {
	if len(r.chars) == 0 {
		return nil
	}
	return r.chars
}

// recordSink collects extracted objects in call order.
type recordSink struct {
	enabled bool
	names   []string
	types   []string
	bodies  [][]byte
	asked   []string
}

func (s *recordSink) ShouldExtract(mediaType string) bool {
	s.asked = append(s.asked, mediaType)
	return s.enabled
}

func (s *recordSink) Extract(r io.Reader, name, mediaType string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.names = append(s.names, name)
	s.types = append(s.types, mediaType)
	s.bodies = append(s.bodies, body)
	return nil
}

// stubRunner scripts external command invocations.
type stubRunner struct {
	calls [][]string
	run   func(name string, args []string) ([]byte, error)
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.run != nil {
		out, err := s.run(name, args)
		return out, nil, err
	}
	return nil, nil, nil
}

func newTestEngine(cfg Config, runner Runner) *AutoDetect {
	e := NewAutoDetect(cfg, nil)
	if runner != nil {
		e.runner = runner
	}
	return e
}

// tinyPNG renders a 1x1 image so detection sees real PNG bytes.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
