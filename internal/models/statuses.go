package models

type SellerStatus string
type UserRole string

const (
	SellerStatusPending  SellerStatus = "pending"
	SellerStatusApproved SellerStatus = "approved"
	SellerStatusRejected SellerStatus = "rejected"

	UserRoleCustomer      UserRole = "customer"
	UserRoleSellerPending UserRole = "seller_pending"
	UserRoleSeller        UserRole = "seller"
	UserRoleAdmin         UserRole = "admin"
)

// ValidSellerStatus reports whether s is one of the three lifecycle states.
func ValidSellerStatus(s SellerStatus) bool {
	switch s {
	case SellerStatusPending, SellerStatusApproved, SellerStatusRejected:
		return true
	}
	return false
}
