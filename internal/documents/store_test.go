package documents

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soko_backend/internal/models"
	"soko_backend/internal/storage"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	objects, err := storage.NewLocalStorage(storage.Config{
		BasePath: dir,
		BaseURL:  "https://cdn.example.com",
	})
	require.NoError(t, err)

	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return NewStore(objects, "documents").WithClock(func() time.Time { return fixed }), dir
}

func TestStore_Upload(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Upload(ctx, "seller-1", UploadFile{
		Name:     "business licence.pdf",
		MimeType: "application/pdf",
		Size:     11,
		Reader:   strings.NewReader("pdf content"),
	})
	require.NoError(t, err)

	// Stored name is timestamp-prefixed and sanitized.
	assert.True(t, strings.HasSuffix(doc.Filename, "-business-licence.pdf"), "got %q", doc.Filename)
	assert.Equal(t, "business licence.pdf", doc.OriginalName)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, int64(11), doc.Size)
	assert.Equal(t, models.StorageSupabase, doc.Storage)
	assert.Equal(t, "documents/seller-1/"+doc.Filename, doc.Path)
	assert.Equal(t, "https://cdn.example.com/"+doc.Path, doc.URL)
	require.NotNil(t, doc.UploadedAt)

	raw, err := os.ReadFile(filepath.Join(dir, doc.Path))
	require.NoError(t, err)
	assert.Equal(t, "pdf content", string(raw))
}

func TestStore_UploadAs_KeepsStoredName(t *testing.T) {
	store, _ := newTestStore(t)

	doc, err := store.UploadAs(context.Background(), "seller-1", "old-scan.jpg", UploadFile{
		Name:     "old scan.jpg",
		MimeType: "image/jpeg",
		Size:     4,
		Reader:   strings.NewReader("jpeg"),
	})
	require.NoError(t, err)

	assert.Equal(t, "old-scan.jpg", doc.Filename)
	assert.Equal(t, "old scan.jpg", doc.OriginalName)
	assert.Equal(t, "documents/seller-1/old-scan.jpg", doc.Path)
}

func TestStore_UploadRejectsPathTraversal(t *testing.T) {
	store, dir := newTestStore(t)

	doc, err := store.UploadAs(context.Background(), "seller-1", "../../etc/passwd", UploadFile{
		Name:     "passwd",
		MimeType: "application/pdf",
		Size:     1,
		Reader:   strings.NewReader("x"),
	})
	require.NoError(t, err)

	// Path components are stripped; the object stays inside the
	// seller's prefix.
	assert.Equal(t, "documents/seller-1/passwd", doc.Path)
	_, err = os.Stat(filepath.Join(dir, "documents", "seller-1", "passwd"))
	assert.NoError(t, err)
}

func TestStore_GetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Upload(ctx, "seller-1", UploadFile{
		Name:     "scan.png",
		MimeType: "image/png",
		Size:     5,
		Reader:   strings.NewReader("bytes"),
	})
	require.NoError(t, err)

	rc, err := store.Get(ctx, doc.Path)
	require.NoError(t, err)
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(raw))
}

func TestStore_List(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf"} {
		_, err := store.UploadAs(ctx, "seller-1", name, UploadFile{
			Name: name, MimeType: "application/pdf", Size: 1, Reader: strings.NewReader("x"),
		})
		require.NoError(t, err)
	}
	_, err := store.UploadAs(ctx, "seller-2", "c.pdf", UploadFile{
		Name: "c.pdf", MimeType: "application/pdf", Size: 1, Reader: strings.NewReader("x"),
	})
	require.NoError(t, err)

	keys, err := store.List(ctx, "seller-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"documents/seller-1/a.pdf",
		"documents/seller-1/b.pdf",
	}, keys)
}

func TestStore_EnsureBucketIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bucket")
	objects, err := storage.NewLocalStorage(storage.Config{BasePath: dir})
	require.NoError(t, err)
	store := NewStore(objects, "documents")
	ctx := context.Background()

	// NewLocalStorage already provisioned the directory.
	created, err := store.EnsureBucket(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	// A missing bucket is created exactly once.
	require.NoError(t, os.RemoveAll(dir))
	created, err = store.EnsureBucket(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureBucket(ctx)
	require.NoError(t, err)
	assert.False(t, created)
}
