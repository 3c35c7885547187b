package model

// Role is the fixed set of employee roles issued by the identity provider.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleCompanyAdmin   Role = "company_admin"
	RoleQuestionWriter Role = "question_writer"
	RoleReviewer       Role = "reviewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// IsAdmin reports whether r carries the admin capability.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleCompanyAdmin
}

// Identity is the authenticated caller as supplied by the auth layer.
type Identity struct {
	UserID    int64 `json:"id"`
	Role      Role  `json:"role"`
	CompanyID int64 `json:"companyId"`
}

// Can reports whether the caller's role grants p.
func (i Identity) Can(p Permission) bool {
	return i.Role.Has(p)
}

// Owns reports whether the caller authored a resource created by authorID.
func (i Identity) Owns(authorID int64) bool {
	return i.UserID == authorID
}
