package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ratemyfit/config"
	"ratemyfit/logger"
)

// minioStore keeps uploads in a MinIO bucket under an uploads/ prefix.
type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO, ensures the bucket exists, and returns an
// UploadStore over it.
func NewMinioStore(cfg *config.Config) (UploadStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &minioStore{client: client, bucket: cfg.MinioBucket}, nil
}

func (s *minioStore) objectName(name string) string {
	return "uploads/" + filepath.Base(name)
}

func (s *minioStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	name = filepath.Base(name)
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(name), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", name, err)
	}
	return "/uploads/" + name, nil
}

func (s *minioStore) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	name = filepath.Base(name)
	object, err := s.client.GetObject(ctx, s.bucket, s.objectName(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object %s: %w", name, err)
	}
	// GetObject defers errors until the first read; Stat surfaces a missing
	// key before the handler commits to a 200.
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, "", err
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return object, contentType, nil
}
