package validator

import (
	"fmt"
)

// MaxFileSize is the hard per-file limit for seller documents.
const MaxFileSize = 10 << 20 // 10 MiB

// allowedDocumentTypes is the upload allow-list. Anything else is refused
// before a single byte is persisted.
var allowedDocumentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/jpg":          true,
	"image/png":          true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// UploadValidation is the outcome of checking one file against policy.
type UploadValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateUpload checks a file's declared type and size. It is pure: no
// I/O, no side effects. Violations accumulate so the caller can report
// every problem at once instead of one per round-trip.
func ValidateUpload(filename, mimeType string, size int64) *UploadValidation {
	var errs []string

	if size > MaxFileSize {
		errs = append(errs, fmt.Sprintf("file %q exceeds the %d MB size limit", filename, MaxFileSize/(1<<20)))
	}

	if !allowedDocumentTypes[mimeType] {
		errs = append(errs, fmt.Sprintf("file %q has unsupported type %q", filename, mimeType))
	}

	return &UploadValidation{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// AllowedTypes returns the upload allow-list, for bucket provisioning.
func AllowedTypes() []string {
	types := make([]string, 0, len(allowedDocumentTypes))
	for t := range allowedDocumentTypes {
		types = append(types, t)
	}
	return types
}
