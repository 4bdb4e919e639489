package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ObjectStore is the uniform interface over document storage backends.
// Supabase Storage holds migrated and newly uploaded documents; the local
// backend fronts the legacy uploads directory during the migration window.
type ObjectStore interface {
	// EnsureBucket checks for the destination bucket and creates it when
	// absent. Safe to call repeatedly and concurrently: an "already
	// exists" answer from the backend is success, not failure.
	EnsureBucket(ctx context.Context) (created bool, err error)

	// Save stores a file at the given path with the declared content type
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Get retrieves a file from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// PublicURL returns the public URL for the file
	PublicURL(path string) string

	// SignedURL returns a temporary signed URL that expires after expiry
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// List returns the keys under the given prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config holds storage configuration
type Config struct {
	Type      string // supabase, local
	Bucket    string
	Endpoint  string // S3-compatible endpoint for Supabase
	BaseURL   string // Public URL base
	AccessKey string
	SecretKey string
	Region    string
	BasePath  string // For local storage
}

// NewObjectStore creates a storage instance based on configuration
func NewObjectStore(cfg Config) (ObjectStore, error) {
	switch cfg.Type {
	case "supabase":
		return NewSupabaseStorage(cfg)
	case "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
