package users

import (
	"slices"
	"strings"
	"time"
)

// RoleType is a role name as the admin API reports it.
type RoleType string

const (
	RoleAdmin RoleType = "admin"
	RoleUser  RoleType = "user" // shoppers; the only accounts orders can be placed for
)

// User is an account record. /auth/me returns the same shape for the signed in admin.
type User struct {
	ID          string     `json:"id,omitempty"`
	Email       string     `json:"email,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	ZipCode     string     `json:"zip_code,omitempty"`
	Country     string     `json:"country,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	IsActive    bool       `json:"is_active"`
	Roles       []RoleType `json:"roles,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// HasRole checks if the user holds role
func (u *User) HasRole(role RoleType) bool {
	return slices.Contains(u.Roles, role)
}

// IsAdmin returns true if the user may use the back office
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// DisplayName prefers the full name and falls back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Email
}
