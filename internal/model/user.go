package model

import (
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// AllRoles lists every valid role, most privileged first.
var AllRoles = []Role{RoleAdmin, RoleEditor, RoleViewer}

// ParseRole returns the role named by s, or false if s is not a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	MiddleName   string    `json:"middleName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary returns the public projection joined into posts, comments and logs.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       u.Role,
	}
}

// UserSummary is the author/user projection embedded in other resources.
type UserSummary struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
}

// Actor is the authenticated requester. It is resolved server-side from the
// bearer token and the credential store, never from client input.
type Actor struct {
	ID   int64
	Role Role
	Name string
}

// ActorOf builds the Actor for an authenticated user.
func ActorOf(u *User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Name: u.FirstName + " " + u.LastName}
}

// NormalizeEmail trims and lower-cases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
