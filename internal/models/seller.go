package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Seller is one business applicant. One row per application lifecycle:
// a re-application after rejection reuses the row, it never duplicates.
type Seller struct {
	BaseModel
	ClerkID string `gorm:"column:clerk_id;index" json:"clerk_id"`
	Email   string `gorm:"uniqueIndex;not null" json:"email"`

	BusinessName string `gorm:"not null" json:"business_name"`
	BusinessType string `json:"business_type"`
	ContactName  string `json:"contact_name"`
	Phone        string `json:"phone"`

	Location datatypes.JSON `gorm:"type:jsonb" json:"location"`
	BankInfo datatypes.JSON `gorm:"type:jsonb" json:"bank_info"`

	// Categories is the canonical column. ProductCategories is the legacy
	// column kept in sync during the schema transition window; readers
	// must go through CategoryList, never touch either column directly.
	Categories        datatypes.JSON `gorm:"type:jsonb;column:categories" json:"categories"`
	ProductCategories datatypes.JSON `gorm:"type:jsonb;column:product_categories" json:"-"`

	RegistrationNumber string `json:"registration_number"`
	TaxID              string `gorm:"column:tax_id" json:"tax_id"`

	Documents datatypes.JSON `gorm:"type:jsonb" json:"documents"`

	Status           SellerStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	RejectionReason  *string      `json:"rejection_reason,omitempty"`
	VerificationDate *time.Time   `json:"verification_date,omitempty"`
}

// Location as structured data inside the jsonb column.
type SellerLocation struct {
	Address string `json:"address"`
	City    string `json:"city"`
	County  string `json:"county"`
	Country string `json:"country"`
}

type SellerBankInfo struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BranchCode    string `json:"branchCode"`
}

// DocumentList decodes the documents column. A missing or null column
// yields an empty list, never an error.
func (s *Seller) DocumentList() []Document {
	if len(s.Documents) == 0 {
		return nil
	}
	var docs []Document
	if err := json.Unmarshal(s.Documents, &docs); err != nil {
		return nil
	}
	return docs
}

// SetDocumentList replaces the documents column. Order is upload order.
func (s *Seller) SetDocumentList(docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	s.Documents = datatypes.JSON(raw)
	return nil
}

// CategoryList returns the canonical category list, falling back to the
// legacy product_categories column for rows written before the rename.
func (s *Seller) CategoryList() []string {
	var cats []string
	if len(s.Categories) > 0 {
		if err := json.Unmarshal(s.Categories, &cats); err == nil && len(cats) > 0 {
			return cats
		}
	}
	if len(s.ProductCategories) > 0 {
		if err := json.Unmarshal(s.ProductCategories, &cats); err == nil {
			return cats
		}
	}
	return nil
}

// SetCategoryList writes both category columns. Dropping the legacy write
// is the last step of the schema migration, not this code's call.
func (s *Seller) SetCategoryList(cats []string) error {
	if cats == nil {
		cats = []string{}
	}
	raw, err := json.Marshal(cats)
	if err != nil {
		return err
	}
	s.Categories = datatypes.JSON(raw)
	s.ProductCategories = datatypes.JSON(raw)
	return nil
}
