package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// localStore writes uploads to a directory served as static files.
type localStore struct {
	dir string
}

// NewLocalStore creates an UploadStore over a local directory, creating it
// if needed.
func NewLocalStore(dir string) (UploadStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &localStore{dir: dir}, nil
}

func (s *localStore) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	// Names are generated server-side, but never trust a path separator.
	name = filepath.Base(name)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload file %s: %w", name, err)
	}
	return "/uploads/" + name, nil
}

func (s *localStore) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	name = filepath.Base(name)
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, "", err
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}
