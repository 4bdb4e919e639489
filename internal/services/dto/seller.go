package dto

import (
	"soko_backend/internal/documents"
	"soko_backend/internal/models"
)

// SellerApplicationRequest is the metadata half of an application; files
// arrive alongside it as multipart parts.
type SellerApplicationRequest struct {
	ClerkID            string                  `json:"clerk_id"`
	Email              string                  `json:"email" validate:"required,email"`
	BusinessName       string                  `json:"business_name" validate:"required"`
	BusinessType       string                  `json:"business_type"`
	ContactName        string                  `json:"contact_name" validate:"required"`
	Phone              string                  `json:"phone"`
	Location           *models.SellerLocation  `json:"location"`
	Categories         []string                `json:"categories"`
	RegistrationNumber string                  `json:"registration_number"`
	TaxID              string                  `json:"tax_id"`
	BankInfo           *models.SellerBankInfo  `json:"bank_info"`
}

// VerificationDecisionRequest is the admin action on an application.
// Notes are recommended for rejections but not enforced.
type VerificationDecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
	Notes  string `json:"notes"`
}

type SellerResponse struct {
	Seller    *models.Seller           `json:"seller"`
	Documents []documents.DocumentInfo `json:"documents"`
}

// SubmissionResult reports the accepted application plus any files that
// failed policy-passing upload; uploads are best-effort per file.
type SubmissionResult struct {
	Seller        *models.Seller `json:"seller"`
	UploadedCount int            `json:"uploaded_count"`
	FailedUploads []string       `json:"failed_uploads,omitempty"`
}

type PaginatedSellers struct {
	Sellers  []models.Seller `json:"sellers"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// DocumentDownload tells the route layer how to serve a document: a URL
// redirect for stored documents, a server-side stream for legacy ones.
type DocumentDownload struct {
	URL          string `json:"url,omitempty"`
	Legacy       bool   `json:"legacy"`
	Path         string `json:"path,omitempty"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
}
