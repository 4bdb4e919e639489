package documents

import (
	"fmt"

	"soko_backend/internal/models"
	"soko_backend/internal/storage"
)

// IsStored reports whether a document's bytes can be fetched from the
// object store without touching the legacy filesystem. The storage tag or
// a non-empty URL is the single source of truth here; the path alone says
// nothing about where the bytes live.
func IsStored(doc models.Document) bool {
	return doc.Storage == models.StorageSupabase || doc.URL != ""
}

// Resolver answers "where do I download this document" for descriptors
// from either storage generation.
type Resolver struct {
	objects storage.ObjectStore
}

func NewResolver(objects storage.ObjectStore) *Resolver {
	return &Resolver{objects: objects}
}

// DownloadURL returns a directly usable URL for a stored document. The
// second return is false for legacy documents: the caller must stream the
// file from disk and set Content-Disposition itself.
func (r *Resolver) DownloadURL(doc models.Document) (string, bool) {
	if !IsStored(doc) {
		return "", false
	}
	if doc.URL != "" {
		return doc.URL, true
	}
	// Tagged but URL-less: descriptor written before URLs were recorded.
	return r.objects.PublicURL(doc.Path), true
}

// DocumentInfo is a display-only projection of a descriptor.
type DocumentInfo struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
	Size         string `json:"size"`
	Storage      string `json:"storage"`
}

// Info derives the projection without mutating the descriptor.
func Info(doc models.Document) DocumentInfo {
	label := "legacy"
	if IsStored(doc) {
		label = "supabase"
	}
	return DocumentInfo{
		Filename:     doc.Filename,
		OriginalName: doc.OriginalName,
		MimeType:     doc.MimeType,
		Size:         humanSize(doc.Size),
		Storage:      label,
	}
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
