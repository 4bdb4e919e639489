package models

import "time"

// Document storage tags. An empty tag means the file still lives on the
// legacy filesystem and has not been migrated.
const (
	StorageSupabase = "supabase"
)

// Document is one uploaded verification file, embedded in the owning
// seller's documents JSON column. It is not a table of its own, so a
// document can only be reached by scanning the seller's list.
//
// JSON field names are part of the persisted format and must not change:
// legacy rows written before the migration carry the same keys minus
// storage/url/migratedAt.
type Document struct {
	Filename     string     `json:"filename"`
	OriginalName string     `json:"originalName"`
	MimeType     string     `json:"mimetype"`
	Size         int64      `json:"size"`
	Storage      string     `json:"storage,omitempty"`
	Path         string     `json:"path,omitempty"`
	URL          string     `json:"url,omitempty"`
	UploadedAt   *time.Time `json:"uploadedAt,omitempty"`
	MigratedAt   *time.Time `json:"migratedAt,omitempty"`
}
