package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/noob2628/Inventory-App/config"
)

// ObjectStorage is implemented by each object store backend.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
	Close() error
}

// attachmentDisposition names the download file after the last key segment.
func attachmentDisposition(key string) string {
	return `attachment; filename="` + path.Base(key) + `"`
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// NewFromConfig builds the configured backend and makes sure its bucket exists.
// It returns nil, nil when no backend is configured.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend), nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func (s *Storage) Close() error {
	return s.backend.Close()
}
