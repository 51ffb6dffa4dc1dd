// Package directory maps opaque subject identifiers to stored account
// records. Accounts are created on first successful registration or portal
// login and mutated on every login; they are never hard-deleted in normal
// operation.
package directory

import (
	"errors"
	"time"
)

// Role is the stored account role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the stored values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is the identity record for an authenticated principal.
// SubjectID is immutable once assigned.
type Account struct {
	SubjectID    string     `json:"subjectId"`
	Email        *string    `json:"email,omitempty"`
	PasswordHash *string    `json:"-"`
	DisplayName  string     `json:"displayName"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// IsAdmin reports whether the account holds the admin role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Fields carries a partial update: nil members are left untouched on an
// existing record.
type Fields struct {
	Email        *string
	PasswordHash *string
	DisplayName  *string
	Role         *Role
	LastLoginAt  *time.Time
}

var (
	ErrNotFound = errors.New("directory: not found")
	ErrConflict = errors.New("directory: already exists")
	// ErrMissingSubject marks a programming-contract violation: every
	// account must have a subject id.
	ErrMissingSubject = errors.New("directory: subject id is required")
	ErrInvalidRole    = errors.New("directory: invalid role")
)
