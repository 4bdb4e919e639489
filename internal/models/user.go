package models

// User is the marketplace account linked to a seller application by email.
// The verification flow is the only writer of the customer/seller_pending/
// seller transitions; admin is assigned out of band.
type User struct {
	BaseModel
	ClerkID string   `gorm:"column:clerk_id;uniqueIndex" json:"clerk_id"`
	Email   string   `gorm:"uniqueIndex;not null" json:"email"`
	Name    string   `json:"name"`
	Role    UserRole `gorm:"type:varchar(20);default:'customer'" json:"role"`
}
