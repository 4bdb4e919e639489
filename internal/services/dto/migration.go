package dto

// MigrationError records one document that could not be moved. The
// document itself stays in the seller's list untouched.
type MigrationError struct {
	SellerID string `json:"seller_id"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// MigrationStats is the structured summary of one runner pass. Skipped
// counts documents already in the object store; a second pass over a
// fully migrated dataset reports Migrated == 0.
type MigrationStats struct {
	SellersProcessed   int              `json:"sellers_processed"`
	DocumentsProcessed int              `json:"documents_processed"`
	DocumentsMigrated  int              `json:"documents_migrated"`
	DocumentsSkipped   int              `json:"documents_skipped"`
	DocumentsFailed    int              `json:"documents_failed"`
	Errors             []MigrationError `json:"errors,omitempty"`
}

// VerifyReport classifies every stored document by whether its bytes are
// actually fetchable, to catch objects removed after a successful upload.
type VerifyReport struct {
	DocumentsChecked int              `json:"documents_checked"`
	Accessible       int              `json:"accessible"`
	Inaccessible     int              `json:"inaccessible"`
	Problems         []MigrationError `json:"problems,omitempty"`
}
