// Package domain contains the core data types for the fleet dispatch
// application. This package has zero external dependencies beyond uuid and
// is imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold.
// A user is exactly one of owner or driver, fixed at signup.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleDriver Role = "driver"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleDriver
}

// User is an authenticated actor. Owners manage fleets and create trips;
// drivers join fleets, accept trips, and report position.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsOwner reports whether the user holds the owner role.
func (u User) IsOwner() bool { return u.Role == RoleOwner }

// IsDriver reports whether the user holds the driver role.
func (u User) IsDriver() bool { return u.Role == RoleDriver }
