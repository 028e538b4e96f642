package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore is a directory-backed Storage. Objects are stored under the root
// with uuid names (original extension kept) and addressed as file:// URIs.
type LocalStore struct {
	root   string
	logger *slog.Logger
}

func NewLocalStore(root string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: abs, logger: logger}, nil
}

func (s *LocalStore) Get(ctx context.Context, uri string) (io.ReadCloser, error) {
	path := strings.TrimPrefix(uri, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", uri, err)
	}
	return f, nil
}

func (s *LocalStore) Put(ctx context.Context, path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(path)
	dest := filepath.Join(s.root, name)
	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", dest, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return "", fmt.Errorf("copy to %q: %w", dest, err)
	}
	s.logger.Debug("stored object", "uri", "file://"+dest, "bytes", n)
	return "file://" + dest, nil
}
