// Package storage abstracts where uploaded outfit images live: a directory
// under the public static root, or a MinIO bucket. Either way the image is
// addressable as /uploads/<name>.
package storage

import (
	"context"
	"io"
)

// UploadStore saves and serves uploaded images.
type UploadStore interface {
	// Save persists the image under the given name and returns its
	// public URL path.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	// Open returns the image content and its content type for serving.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
}
