package documents

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"soko_backend/internal/models"
	"soko_backend/internal/storage"
	"soko_backend/pkg/apperrors"
)

// UploadFile is one incoming file, decoupled from the HTTP layer so the
// migration runner can push legacy bytes through the same path.
type UploadFile struct {
	Name     string
	MimeType string
	Size     int64
	Reader   io.Reader
}

// Store persists seller documents into the object store and produces the
// descriptors embedded in the seller row. Keys are namespaced by seller id
// and timestamp so concurrent uploads never collide.
type Store struct {
	objects   storage.ObjectStore
	namespace string
	now       func() time.Time
}

func NewStore(objects storage.ObjectStore, namespace string) *Store {
	if namespace == "" {
		namespace = "documents"
	}
	return &Store{
		objects:   objects,
		namespace: namespace,
		now:       time.Now,
	}
}

// WithClock overrides the clock. Tests only.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// EnsureBucket provisions the destination bucket. Idempotent.
func (s *Store) EnsureBucket(ctx context.Context) (bool, error) {
	created, err := s.objects.EnsureBucket(ctx)
	if err != nil {
		return false, apperrors.StorageError(err, "failed to ensure document bucket")
	}
	return created, nil
}

// Upload persists one file under a fresh timestamp-prefixed name and
// returns its descriptor. Failures come back as errors, never panics, so
// batch callers can record and continue.
func (s *Store) Upload(ctx context.Context, sellerID string, file UploadFile) (models.Document, error) {
	storedName := fmt.Sprintf("%d-%s", s.now().UTC().UnixMilli(), sanitizeFilename(file.Name))
	return s.UploadAs(ctx, sellerID, storedName, file)
}

// UploadAs persists one file under a caller-chosen stored name. The
// migration runner uses it to keep a legacy document's filename stable
// while moving its bytes.
func (s *Store) UploadAs(ctx context.Context, sellerID, storedName string, file UploadFile) (models.Document, error) {
	key := fmt.Sprintf("%s/%s/%s", s.namespace, sellerID, sanitizeFilename(storedName))

	if err := s.objects.Save(ctx, key, file.Reader, file.MimeType); err != nil {
		return models.Document{}, apperrors.StorageError(err, fmt.Sprintf("failed to upload %q", file.Name))
	}

	uploadedAt := s.now().UTC()
	return models.Document{
		Filename:     sanitizeFilename(storedName),
		OriginalName: file.Name,
		MimeType:     file.MimeType,
		Size:         file.Size,
		Storage:      models.StorageSupabase,
		Path:         key,
		URL:          s.objects.PublicURL(key),
		UploadedAt:   &uploadedAt,
	}, nil
}

// Get reads back document bytes by storage path.
func (s *Store) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := s.objects.Get(ctx, path)
	if err != nil {
		return nil, apperrors.StorageError(err, "failed to fetch document")
	}
	return rc, nil
}

// SignedURL returns a URL that expires after ttl.
func (s *Store) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	url, err := s.objects.SignedURL(ctx, path, ttl)
	if err != nil {
		return "", apperrors.StorageError(err, "failed to sign document URL")
	}
	return url, nil
}

// Delete removes a document object.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.objects.Delete(ctx, path); err != nil {
		return apperrors.StorageError(err, "failed to delete document")
	}
	return nil
}

// List returns storage keys for one seller's documents.
func (s *Store) List(ctx context.Context, sellerID string) ([]string, error) {
	keys, err := s.objects.List(ctx, fmt.Sprintf("%s/%s/", s.namespace, sellerID))
	if err != nil {
		return nil, apperrors.StorageError(err, "failed to list documents")
	}
	return keys, nil
}

// Objects exposes the underlying store for components that resolve URLs.
func (s *Store) Objects() storage.ObjectStore {
	return s.objects
}

// sanitizeFilename strips path components and characters that do not
// survive as object keys.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(" ", "-", "#", "-", "?", "-", "%", "-")
	return replacer.Replace(name)
}
