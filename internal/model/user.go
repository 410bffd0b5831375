// Package model defines domain entities for the application.
package model

import "time"

// UserRole constants.
const (
	RoleAdmin  = "admin"
	RoleTenant = "tenant"
)

// ValidRoles contains all recognized user roles.
var ValidRoles = []string{RoleAdmin, RoleTenant}

// IsValidRole checks whether the given role is recognized.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleTenant
}

// User represents a tenant or admin account. Accounts are keyed by phone
// number, which doubles as the login identifier.
type User struct {
	ID              string    `json:"user_id"`
	Phone           string    `json:"phone"`
	FullName        string    `json:"full_name"`
	NationalID      string    `json:"national_id,omitempty"`
	NationalIDImage string    `json:"national_id_image,omitempty"`
	PasswordHash    string    `json:"-"` // Never serialize
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsAdmin returns true if the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthContext holds the authenticated identity for a request.
// Injected into the request context by the auth middleware.
type AuthContext struct {
	UserID string
	Phone  string
	Role   string
}

// IsAdmin returns true if the authenticated user holds the admin role.
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}
